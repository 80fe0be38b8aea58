package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/config"
	"github.com/hupe1980/recgo/testutil"
)

// writeRatings writes clustered "user item rating" lines.
func writeRatings(t *testing.T) string {
	t.Helper()
	rng := testutil.NewRNG(5)
	var b strings.Builder
	for u := range 30 {
		c := u % 3
		for _, k := range rng.Rand().Perm(10)[:6] {
			fmt.Fprintf(&b, "u%d\ti%d\t%d\n", u, c*10+k, 1+rng.IntN(5))
		}
	}
	path := filepath.Join(t.TempDir(), "ratings.tsv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func TestRun(t *testing.T) {
	train := writeRatings(t)
	snapDir := t.TempDir()
	t.Setenv("RECGO_SNAPSHOT_STORE", "local")
	t.Setenv("RECGO_SNAPSHOT_PATH", snapDir)
	t.Setenv("RECGO_SOLVER_MAX_ITERATIONS", "2")
	t.Setenv("RECGO_LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	err := run(t.Context(), []string{"-train", train, "-method", "bpr", "-baseline"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "baseline: popularity")
	assert.Contains(t, out, "model: bpr")
	assert.Contains(t, out, "Train Loss")
	assert.Contains(t, out, "saved models/model.snap")

	m, err := recgo.LoadModel(t.Context(), blobstore.NewLocalStore(snapDir), "models/model.snap")
	require.NoError(t, err)
	assert.Equal(t, "bpr", m.Name())
}

func TestRun_InvalidConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(t.Context(), []string{"-method", "bpr"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.train")

	err = run(t.Context(), []string{"-bogus"}, &stdout, &stderr)
	require.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	ctx := t.Context()
	cases := map[string]func() (string, string){
		"memory": func() (string, string) { return "memory", "" },
		"local":  func() (string, string) { return "local", t.TempDir() },
		"badger": func() (string, string) { return "badger", t.TempDir() },
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			kind, path := setup()
			cfg := config.Default().Snapshot
			cfg.Store, cfg.Path = kind, path
			cfg.MaxConcurrent, cfg.CacheBytes = 2, 1<<20

			store, closeStore, err := openStore(ctx, cfg, nil)
			require.NoError(t, err)
			defer func() { require.NoError(t, closeStore()) }()

			_, ok := store.(*blobstore.CachingStore)
			assert.True(t, ok)
			require.NoError(t, store.Put(ctx, "a/b", []byte("x")))
			got, err := store.Get(ctx, "a/b")
			require.NoError(t, err)
			assert.Equal(t, []byte("x"), got)
		})
	}

	cfg := config.Default().Snapshot
	cfg.Store = "ftp"
	_, _, err := openStore(ctx, cfg, nil)
	require.Error(t, err)
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.RecordIteration(1, 10*time.Millisecond, 2.5)
	c.RecordIteration(2, 10*time.Millisecond, 1.5)
	c.RecordEvaluation("RMSE", time.Millisecond, nil)
	c.RecordEvaluation("RMSE", time.Millisecond, assert.AnError)
	c.RecordSnapshot(128, time.Millisecond, nil)
	c.RecordSplit(80, 20)

	assert.Equal(t, 2.0, promtest.ToFloat64(c.iterations))
	assert.Equal(t, 1.5, promtest.ToFloat64(c.loss))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.evaluations.WithLabelValues("RMSE", "error")))
	assert.Equal(t, 128.0, promtest.ToFloat64(c.snapshotBytes))
	assert.Equal(t, 20.0, promtest.ToFloat64(c.splitRecords.WithLabelValues("test")))

	n, err := promtest.GatherAndCount(reg, "recgo_iterations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
