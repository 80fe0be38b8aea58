package minio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	prefix := fmt.Sprintf("test-%d/", time.Now().UnixNano())
	store, err := Dial(ctx, "localhost:9000", "minioadmin", "minioadmin", "test-recgo", prefix, false)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "models/pmf", data))
	require.NoError(t, store.Put(ctx, "models/bpr", []byte("bpr")))

	got, err := store.Get(ctx, "models/pmf")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "models/")
	require.NoError(t, err)
	assert.Equal(t, []string{"models/bpr", "models/pmf"}, names)

	require.NoError(t, store.Delete(ctx, "models/pmf"))
	require.NoError(t, store.Delete(ctx, "models/bpr"))
	require.NoError(t, store.Delete(ctx, "models/bpr"))

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}
