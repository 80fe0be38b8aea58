package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `models/a\*b\?`, escapeGlob("models/a*b?"))
	assert.Equal(t, `\[x\]`, escapeGlob("[x]"))
}

func TestCompact(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, compact([]string{"a", "a", "b"}))
	assert.Empty(t, compact(nil))
}

// TestRedisStore_Integration requires a Redis server on localhost:6379.
func TestRedisStore_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	prefix := fmt.Sprintf("recgo-test-%d:", time.Now().UnixNano())
	store, err := Dial(ctx, "localhost:6379", 0, WithPrefix(prefix), WithTTL(time.Minute))
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer store.Close()

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, "models/pmf", []byte("pmf")))
	require.NoError(t, store.Put(ctx, "models/bpr", []byte("bpr")))
	require.NoError(t, store.Put(ctx, "datasets/train", []byte("train")))

	got, err := store.Get(ctx, "models/pmf")
	require.NoError(t, err)
	assert.Equal(t, []byte("pmf"), got)

	names, err := store.List(ctx, "models/")
	require.NoError(t, err)
	assert.Equal(t, []string{"models/bpr", "models/pmf"}, names)

	for _, name := range []string{"models/pmf", "models/bpr", "datasets/train"} {
		require.NoError(t, store.Delete(ctx, name))
	}
	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}
