package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/evaluation"
	"github.com/hupe1980/recgo/loss"
	"github.com/hupe1980/recgo/model"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recgo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Layers(t *testing.T) {
	path := writeYAML(t, `
data:
  train: ratings.tsv
  skip_header: true
model:
  method: bpr
  dim: 16
solver:
  max_iterations: 30
evaluation:
  metrics: [topn, ranking]
`)
	t.Setenv("RECGO_SOLVER_MAX_ITERATIONS", "5")
	t.Setenv("RECGO_MODEL_LAMBDA", "0.5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ratings.tsv", cfg.Data.Train)
	assert.True(t, cfg.Data.SkipHeader)
	assert.Equal(t, "bpr", cfg.Model.Method)
	assert.Equal(t, 16, cfg.Model.Dim)
	assert.Equal(t, 0.5, cfg.Model.Lambda)
	// Environment beats the file.
	assert.Equal(t, 5, cfg.Solver.MaxIterations)
	// Defaults survive.
	assert.Equal(t, 1, cfg.Solver.EvalIterations)
	assert.Equal(t, 0.2, cfg.Data.SplitRatio)
	assert.Len(t, cfg.Data.Columns, 3)
	assert.Equal(t, []string{"topn", "ranking"}, cfg.Evaluation.Metrics)
}

func TestLoad_EnvSlice(t *testing.T) {
	t.Setenv("RECGO_DATA_TRAIN", "train.txt")
	t.Setenv("RECGO_EVALUATION_METRICS", "rmse, mae")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"rmse", "mae"}, cfg.Evaluation.Metrics)
}

func TestLoadWithOverrides(t *testing.T) {
	t.Setenv("RECGO_MODEL_METHOD", "als")

	cfg, err := LoadWithOverrides("", map[string]any{
		"data.train":   "train.txt",
		"model.method": "bpr",
	})
	require.NoError(t, err)
	assert.Equal(t, "train.txt", cfg.Data.Train)
	assert.Equal(t, "bpr", cfg.Model.Method)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("missing train", func(t *testing.T) {
		_, err := Load("")
		require.Error(t, err)
	})

	t.Run("unknown method", func(t *testing.T) {
		t.Setenv("RECGO_DATA_TRAIN", "train.txt")
		t.Setenv("RECGO_MODEL_METHOD", "svd++")
		_, err := Load("")
		require.Error(t, err)
	})

	t.Run("unknown metric", func(t *testing.T) {
		t.Setenv("RECGO_DATA_TRAIN", "train.txt")
		t.Setenv("RECGO_EVALUATION_METRICS", "auc")
		_, err := Load("")
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestValidate_Snapshot(t *testing.T) {
	cfg := Default()
	cfg.Data.Train = "train.txt"
	require.NoError(t, cfg.Validate())

	cfg.Snapshot.Store = "local"
	require.Error(t, cfg.Validate())
	cfg.Snapshot.Path = t.TempDir()
	require.NoError(t, cfg.Validate())

	cfg.Snapshot.Store = "minio"
	cfg.Snapshot.Bucket = "b"
	require.Error(t, cfg.Validate())
	cfg.Snapshot.Endpoint = "localhost:9000"
	require.NoError(t, cfg.Validate())

	cfg.Snapshot.Store = "ftp"
	require.Error(t, cfg.Validate())
}

func TestValidate_Groups(t *testing.T) {
	cfg := Default()
	cfg.Data.Train = "train.txt"
	cfg.Model.ItemGroup = cfg.Model.UserGroup
	require.Error(t, cfg.Validate())
}

func TestConversions(t *testing.T) {
	cfg := Default()

	cols, err := cfg.Data.LoaderColumns()
	require.NoError(t, err)
	assert.Equal(t, dataset.RecsysColumns(), cols)

	cfg.Data.Filter = "label >= 3.0"
	opts, err := cfg.Data.LoaderOptions(slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Len(t, opts, 4)

	cfg.Model.Method = "warp"
	method, mc, err := cfg.Model.Build(4)
	require.NoError(t, err)
	assert.Equal(t, model.MethodWARP, method)
	assert.Equal(t, loss.Hinge, mc.Loss)
	assert.Equal(t, 4, mc.Workers)

	cfg.Model.Loss = "logistic"
	_, mc, err = cfg.Model.Build(0)
	require.NoError(t, err)
	assert.Equal(t, loss.Logistic, mc.Loss)

	kinds, err := cfg.Evaluation.Kinds()
	require.NoError(t, err)
	assert.Equal(t, []evaluation.Kind{evaluation.KindRMSE, evaluation.KindTopN}, kinds)

	popts, err := cfg.Snapshot.PersistenceOptions()
	require.NoError(t, err)
	assert.Len(t, popts, 2)

	assert.Equal(t, slog.LevelInfo, cfg.Log.SlogLevel())
	assert.Equal(t, slog.LevelDebug, LogConfig{Level: "debug"}.SlogLevel())
}

func TestBuild_CDAE(t *testing.T) {
	cfg := Default()
	cfg.Data.Train = "train.txt"
	cfg.Model.Method = "cdae"
	cfg.Model.Corruption = 0.25
	require.NoError(t, cfg.Validate())

	method, mc, err := cfg.Model.Build(2)
	require.NoError(t, err)
	assert.Equal(t, model.MethodCDAE, method)
	assert.Equal(t, loss.CrossEntropy, mc.Loss)
	assert.Equal(t, 0.25, mc.CorruptionRatio)

	cfg.Model.Corruption = 1
	require.Error(t, cfg.Validate())
}
