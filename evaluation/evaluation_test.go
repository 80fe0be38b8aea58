package evaluation

import (
	"context"
	"math"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/testutil"
)

// fixedModel recommends a fixed ranking per user and predicts a constant.
type fixedModel struct {
	model.Model
	ranking map[int][]int
	predict float64
	err     error
}

func (f *fixedModel) Predict(*dataset.Record) float64 { return f.predict }

func (f *fixedModel) Recommend(user, k int, exclude *roaring.Bitmap) ([]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []int
	for _, item := range f.ranking[user] {
		if len(out) == k {
			break
		}
		if exclude == nil || !exclude.Contains(uint32(item)) {
			out = append(out, item)
		}
	}
	return out, nil
}

func interactions(t *testing.T, users, items []int, labels []float64) *dataset.Dataset {
	t.Helper()
	ds, err := testutil.Interactions(users, items, labels)
	require.NoError(t, err)
	return ds
}

func topN(t *testing.T, kind Kind) Metric {
	t.Helper()
	m, err := New(kind, WithWorkers(2))
	require.NoError(t, err)
	return m
}

func value(t *testing.T, r Result, column string) float64 {
	t.Helper()
	v, ok := r.Value(column)
	require.True(t, ok, column)
	return v
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindRMSE, KindMAE, KindTopN, KindRanking} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("auc")
	require.ErrorIs(t, err, ErrUnknownKind)

	_, err = New(Kind(42))
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestResult_String(t *testing.T) {
	r := Result{Columns: []string{"P@1", "RMSE"}, Values: []float64{1, 0.123456789}}
	assert.Equal(t, "       1|   0.12346", r.String())
	assert.Equal(t, "     P@1|    RMSE", Header(r.Columns))

	_, ok := r.Value("MAE")
	assert.False(t, ok)
}

func TestRMSE_MAE(t *testing.T) {
	ds := interactions(t, []int{0, 1}, []int{0, 1}, []float64{1, 5})
	m := &fixedModel{predict: 2}

	r, err := RMSE{}.Evaluate(t.Context(), m, ds, nil)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt((1+9)/2.0), value(t, r, "RMSE"), 1e-12)

	r, err = MAE{}.Evaluate(t.Context(), m, ds, nil)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, value(t, r, "MAE"), 1e-12)

	_, err = RMSE{}.Evaluate(t.Context(), m, ds.Slice(0, 0), nil)
	require.ErrorIs(t, err, ErrEmptyValidation)
}

func TestTopN_RelevantFirstAndEleventh(t *testing.T) {
	// One user, twelve items; item 11 is the only validation item.
	users := make([]int, 12)
	items := make([]int, 12)
	for i := range items {
		items[i] = i
	}
	all := interactions(t, users, items, nil)
	validation := all.Slice(11, 12)

	first := &fixedModel{ranking: map[int][]int{0: {11, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}}
	r, err := topN(t, KindTopN).Evaluate(t.Context(), first, validation, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, value(t, r, "P@1"))
	assert.Equal(t, 1.0, value(t, r, "R@1"))
	assert.Equal(t, 1.0, value(t, r, "MAP@10"))

	eleventh := &fixedModel{ranking: map[int][]int{0: {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 11, 10}}}
	r, err = topN(t, KindTopN).Evaluate(t.Context(), eleventh, validation, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, value(t, r, "P@10"))
	assert.Equal(t, 0.0, value(t, r, "R@10"))
}

func TestScoreList(t *testing.T) {
	got := scoreList([]int{1, 2, 3, 4, 5, 6}, roaring.BitmapOf(1, 3))
	want := []float64{1, 2.0 / 5, 2.0 / 10, 0.5, 1, 1, (1 + 2.0/3) / 2, (1 + 2.0/3) / 2}
	assert.InDeltaSlice(t, want, got, 1e-12)

	// A short list still divides by the cutoff.
	got = scoreList([]int{1}, roaring.BitmapOf(1))
	assert.Equal(t, 1.0/5, got[1])
}

func TestScoreNDCG(t *testing.T) {
	labels := map[int]float64{7: 3, 8: 1}
	got := scoreNDCG([]int{8, 7}, labels)
	d := 1 + 7/math.Log2(3)
	ideal := 7 + 1/math.Log2(3)
	assert.InDelta(t, d/ideal, got[0], 1e-12)
	assert.InDelta(t, d/ideal, got[1], 1e-12)

	perfect := scoreNDCG([]int{7, 8}, labels)
	assert.InDelta(t, 1.0, perfect[0], 1e-12)

	assert.Equal(t, []float64{0, 0}, scoreNDCG([]int{1}, map[int]float64{1: 0}))
}

func TestTopN_AveragesOverEvaluatedUsers(t *testing.T) {
	// Users 0 and 1 train on item 0; only user 0 has a validation item.
	all := interactions(t, []int{0, 1, 0}, []int{0, 0, 1}, nil)
	train, validation := all.Slice(0, 2), all.Slice(2, 3)

	m := &fixedModel{ranking: map[int][]int{0: {1}, 1: {1}}}
	r, err := topN(t, KindTopN).Evaluate(t.Context(), m, validation, train)
	require.NoError(t, err)
	assert.Equal(t, 1.0, value(t, r, "P@1"))
}

func TestTopN_Errors(t *testing.T) {
	all := interactions(t, []int{0, 1}, []int{0, 1}, nil)
	train, validation := all.Slice(0, 1), all.Slice(1, 2)

	m := &fixedModel{ranking: map[int][]int{1: {0, 1}}}
	_, err := topN(t, KindTopN).Evaluate(t.Context(), m, validation, train)
	require.ErrorIs(t, err, model.ErrUnknownEntity)

	failing := &fixedModel{err: model.ErrInsufficientCandidates}
	_, err = topN(t, KindTopN).Evaluate(t.Context(), failing, validation, nil)
	require.ErrorIs(t, err, model.ErrInsufficientCandidates)

	_, err = topN(t, KindTopN).Evaluate(t.Context(), m, all.Slice(0, 0), train)
	require.ErrorIs(t, err, ErrEmptyValidation)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = topN(t, KindTopN).Evaluate(ctx, m, validation, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRanking_Columns(t *testing.T) {
	metric := topN(t, KindRanking)
	assert.Equal(t, "Ranking", metric.Name())
	assert.Len(t, metric.Columns(), 10)
	assert.Len(t, topN(t, KindTopN).Columns(), 8)
}

func TestTopN_Popularity(t *testing.T) {
	ds, err := testutil.NewRNG(21).RandomInteractions(40, 30, 6, 1.2)
	require.NoError(t, err)
	train, test, err := ds.SplitByGroup(0, 0.2, testutil.NewRNG(1).Rand())
	require.NoError(t, err)

	m, err := model.New(model.MethodPopularity, model.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, m.Reset(train))

	metrics, err := NewAll([]Kind{KindRMSE, KindRanking}, WithWorkers(4))
	require.NoError(t, err)
	for _, metric := range metrics {
		r, err := metric.Evaluate(t.Context(), m, test, train)
		require.NoError(t, err, metric.Name())
		require.Len(t, r.Values, len(metric.Columns()))
		for i, v := range r.Values {
			assert.False(t, math.IsNaN(v), r.Columns[i])
		}
	}
}

func TestTopN_EmptyTrainActsLikeNil(t *testing.T) {
	all := interactions(t, []int{0, 1}, []int{0, 1}, nil)
	validation := all.Slice(1, 2)
	m := &fixedModel{ranking: map[int][]int{1: {1, 0}}}

	withNil, err := topN(t, KindTopN).Evaluate(t.Context(), m, validation, nil)
	require.NoError(t, err)
	withEmpty, err := topN(t, KindTopN).Evaluate(t.Context(), m, validation, validation.Slice(0, 0))
	require.NoError(t, err)
	assert.Equal(t, withNil, withEmpty)
	assert.Equal(t, 1.0, value(t, withEmpty, "P@1"))
}

func TestTopN_RecommendedIDOutOfRange(t *testing.T) {
	all := interactions(t, []int{0, 1}, []int{0, 1}, nil)
	validation := all.Slice(1, 2)

	for _, bad := range []int{2, -1} {
		m := &fixedModel{ranking: map[int][]int{1: {1, bad}}}
		_, err := topN(t, KindTopN).Evaluate(t.Context(), m, validation, nil)
		require.ErrorIs(t, err, dataset.ErrIDOutOfRange, "item %d", bad)
	}
}

func TestTopN_WorkerCountDoesNotChangeAverages(t *testing.T) {
	validation := interactions(t, []int{0, 1, 2}, []int{0, 1, 2}, nil)
	m := &fixedModel{ranking: map[int][]int{0: {0}, 1: {1}, 2: {0}}}

	var results []Result
	for _, workers := range []int{1, 3, 16} {
		metric, err := New(KindRanking, WithWorkers(workers))
		require.NoError(t, err)
		r, err := metric.Evaluate(t.Context(), m, validation, nil)
		require.NoError(t, err, "workers=%d", workers)
		assert.InDelta(t, 2.0/3, value(t, r, "P@1"), 1e-12, "workers=%d", workers)
		assert.InDelta(t, 2.0/3, value(t, r, "R@10"), 1e-12, "workers=%d", workers)
		results = append(results, r)
	}
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, results[0], results[2])
}
