package badger

import (
	"testing"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_InMemory(t *testing.T) {
	store, err := OpenInMemory(nil)
	require.NoError(t, err)
	defer store.Close()

	ctx := t.Context()

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

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"datasets/train", "models/bpr", "models/pmf"}, all)

	require.NoError(t, store.Delete(ctx, "models/bpr"))
	require.NoError(t, store.Delete(ctx, "models/bpr"))
	_, err = store.Get(ctx, "models/bpr")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, store.Put(t.Context(), "k", []byte("v")))
	require.NoError(t, store.Close())

	store, err = Open(dir, nil)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Get(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
