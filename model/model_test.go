package model

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/testutil"
)

func interactions(t *testing.T, users, items []int, labels []float64) *dataset.Dataset {
	t.Helper()
	ds, err := testutil.Interactions(users, items, labels)
	require.NoError(t, err)
	return ds
}

func trained(t *testing.T, method Method, cfg Config, ds *dataset.Dataset, iterations int) Model {
	t.Helper()
	m, err := New(method, cfg)
	require.NoError(t, err)
	require.NoError(t, m.Reset(ds))
	for range iterations {
		require.NoError(t, m.TrainOneIteration(context.Background(), ds))
	}
	return m
}

func TestParseMethod(t *testing.T) {
	for _, m := range Methods() {
		got, err := ParseMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseMethod(" BPR ")
	require.NoError(t, err)
	assert.Equal(t, MethodBPR, got)

	_, err = ParseMethod("svd")
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestParseSimilarity(t *testing.T) {
	s, err := ParseSimilarity("Cosine")
	require.NoError(t, err)
	assert.Equal(t, Cosine, s)

	_, err = ParseSimilarity("pearson")
	require.Error(t, err)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dim = 0
	cfg.Lambda = -1
	cfg.ItemGroup = cfg.UserGroup

	_, err := New(MethodPMF, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dim")
	assert.Contains(t, err.Error(), "lambda")
	assert.Contains(t, err.Error(), "distinct")

	_, err = New(Method(99), DefaultConfig())
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestDefaultConfigFor(t *testing.T) {
	assert.Equal(t, "log", DefaultConfigFor(MethodBPR).Loss.String())
	warp := DefaultConfigFor(MethodWARP)
	assert.Equal(t, "hinge", warp.Loss.String())
	assert.Equal(t, 0.1, warp.Lambda)
	assert.Equal(t, 5, DefaultConfigFor(MethodFM).Dim)
	assert.Equal(t, "cross_entropy", DefaultConfigFor(MethodCDAE).Loss.String())
	assert.Equal(t, DefaultConfig(), DefaultConfigFor(MethodPMF))
}

func TestAdagrad(t *testing.T) {
	grad := []float64{2, 0}
	acc := []float64{0, 0}
	adagrad(grad, acc, 1)
	assert.InDelta(t, 2.0/3.0, grad[0], 1e-12)
	assert.Equal(t, 0.0, grad[1])
	assert.Equal(t, []float64{4, 0}, acc)

	a := 0.0
	assert.InDelta(t, 3.0/4.0, adagradScalar(3, &a, 1), 1e-12)
	assert.Equal(t, 9.0, a)
}

func TestMatrix(t *testing.T) {
	m := NewMatrix(2, 3)
	copy(m.Row(1), []float64{1, 2, 3})
	assert.Equal(t, []float64{0, 0, 0, 1, 2, 3}, m.Data)
	assert.Equal(t, 14.0, m.Dot(1, m, 1))

	m.Fill(0.5)
	assert.Equal(t, 0.75, m.Dot(0, m, 1))

	r := RandomMatrix(rand.New(rand.NewPCG(1, 2)), 4, 4, 0.01)
	for _, v := range r.Data {
		assert.LessOrEqual(t, v, 0.01)
		assert.GreaterOrEqual(t, v, -0.01)
	}
}

func TestSampleNegative_Cap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSampleAttempts = 3
	b := newBase(cfg)
	b.numItems = 2
	rng := rand.New(rand.NewPCG(1, 1))

	_, ok := b.sampleNegative(rng, roaring.BitmapOf(0, 1))
	assert.False(t, ok)

	j, ok := b.sampleNegative(rng, roaring.BitmapOf(0))
	if ok {
		assert.Equal(t, 1, j)
	}

	b.numItems = 0
	_, ok = b.sampleNegative(rng, nil)
	assert.False(t, ok)
}

func TestPopularity(t *testing.T) {
	// Item counts: 0 -> 2, 1 -> 1, 2 -> 3.
	ds := interactions(t, []int{0, 1, 2, 0, 1, 2}, []int{0, 0, 1, 2, 2, 2}, nil)
	m := trained(t, MethodPopularity, DefaultConfig(), ds, 1)

	got, err := m.Recommend(0, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, got)

	got, err = m.Recommend(1, 2, roaring.BitmapOf(2))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got)

	_, err = m.Recommend(0, 3, roaring.BitmapOf(2))
	require.ErrorIs(t, err, ErrInsufficientCandidates)

	assert.Equal(t, 3.0, m.Predict(ds.Record(3)))
	assert.Zero(t, m.PenaltyLoss())
}

func TestRecommend_Errors(t *testing.T) {
	m, err := New(MethodPMF, DefaultConfig())
	require.NoError(t, err)
	_, err = m.Recommend(0, 1, nil)
	require.ErrorIs(t, err, ErrNotTrained)

	ds := interactions(t, []int{0, 1}, []int{0, 1}, nil)
	require.NoError(t, m.Reset(ds))
	_, err = m.Recommend(7, 1, nil)
	require.ErrorIs(t, err, ErrUnknownEntity)
	_, err = m.Recommend(-1, 1, nil)
	require.ErrorIs(t, err, ErrUnknownEntity)
}

func TestReset_InvalidGroup(t *testing.T) {
	ds := interactions(t, []int{0}, []int{0}, nil)
	cfg := DefaultConfig()
	cfg.ItemGroup = 5
	for _, method := range Methods() {
		m, err := New(method, cfg)
		require.NoError(t, err)
		require.ErrorIs(t, m.Reset(ds), dataset.ErrInvalidGroup, method.String())
	}
}

func TestTrainOneIteration_Canceled(t *testing.T) {
	ds, err := testutil.NewRNG(3).RandomInteractions(10, 10, 3, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, method := range []Method{MethodPMF, MethodBPR, MethodWARP, MethodALS, MethodFM, MethodCDAE} {
		m, err := New(method, DefaultConfigFor(method))
		require.NoError(t, err)
		require.NoError(t, m.Reset(ds))
		require.ErrorIs(t, m.TrainOneIteration(ctx, ds), context.Canceled, method.String())
	}
}

func TestStochasticModels(t *testing.T) {
	for _, method := range []Method{MethodPMF, MethodBPR, MethodWARP, MethodFM} {
		m, err := New(method, DefaultConfigFor(method))
		require.NoError(t, err)
		_, ok := m.(StochasticModel)
		assert.True(t, ok, method.String())
	}
	for _, method := range []Method{MethodPopularity, MethodALS, MethodItemCF, MethodUserCF, MethodCDAE} {
		m, err := New(method, DefaultConfigFor(method))
		require.NoError(t, err)
		_, ok := m.(StochasticModel)
		assert.False(t, ok, method.String())
	}
}
