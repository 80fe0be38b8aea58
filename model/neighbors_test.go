package model

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/internal/topk"
	"github.com/hupe1980/recgo/testutil"
)

// Users 0 and 1 rated items 0 and 1; user 2 rated items 2 and 0.
func neighborData(t *testing.T) *dataset.Dataset {
	return interactions(t, []int{0, 0, 1, 1, 2, 2}, []int{0, 1, 0, 1, 2, 0}, nil)
}

func TestItemCF_Jaccard(t *testing.T) {
	ds := neighborData(t)
	m := NewItemCF(DefaultConfig())
	require.NoError(t, m.Reset(ds))

	nb := m.Neighbors(0)
	require.Len(t, nb, 2)
	assert.Equal(t, 1, nb[0].ID)
	assert.InDelta(t, 2.0/3.0, nb[0].Score, 1e-12)
	assert.Equal(t, 2, nb[1].ID)
	assert.InDelta(t, 1.0/3.0, nb[1].Score, 1e-12)
	assert.Nil(t, m.Neighbors(42))

	got, err := m.Recommend(0, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, got)

	// Item 1 for user 2: similar to rated item 0.
	r := dataset.NewRecord(1, dataset.BinaryValue(2), dataset.BinaryValue(1))
	assert.InDelta(t, 2.0/3.0, m.Predict(r), 1e-12)
}

func TestItemCF_Cosine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Similarity = Cosine
	m := NewItemCF(cfg)
	require.NoError(t, m.Reset(neighborData(t)))

	nb := m.Neighbors(0)
	require.Len(t, nb, 2)
	assert.InDelta(t, 2/math.Sqrt(6), nb[0].Score, 1e-12)
	assert.InDelta(t, 1/math.Sqrt(3), nb[1].Score, 1e-12)
}

func TestItemCF_NeighborLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Neighbors = 1
	m := NewItemCF(cfg)
	require.NoError(t, m.Reset(neighborData(t)))
	nb := m.Neighbors(0)
	require.Len(t, nb, 1)
	assert.Equal(t, topk.Scored{ID: 1, Score: 2.0 / 3.0}, nb[0])
}

func TestUserCF(t *testing.T) {
	m := NewUserCF(DefaultConfig())
	require.NoError(t, m.Reset(neighborData(t)))

	nb := m.Neighbors(2)
	require.Len(t, nb, 2)
	assert.InDelta(t, 1.0/3.0, nb[0].Score, 1e-12)

	got, err := m.Recommend(2, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)

	got, err = m.Recommend(2, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = m.Recommend(3, 5, nil)
	require.ErrorIs(t, err, ErrUnknownEntity)
}

func TestItemCF_StaysInCluster(t *testing.T) {
	ds, err := testutil.NewRNG(2).ClusteredInteractions(30, 30, 3, 5)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Workers = 3
	m := trained(t, MethodItemCF, cfg, ds, 1)

	items := ds.Schema().Group(1)
	for u := range 3 {
		got, err := m.Recommend(u, 5, nil)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		for _, id := range got {
			key, ok := items.Key(id)
			require.True(t, ok)
			n, err := strconv.Atoi(key)
			require.NoError(t, err)
			assert.Equal(t, u%3, n/10, "user %d got item %s", u, key)
		}
	}
}
