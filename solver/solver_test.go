package solver

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/evaluation"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/testutil"
)

func splitData(t *testing.T) (train, test *dataset.Dataset) {
	t.Helper()
	ds, err := testutil.NewRNG(17).RandomInteractions(30, 20, 6, 1)
	require.NoError(t, err)
	train, test, err = ds.SplitByGroup(0, 0.2, testutil.NewRNG(2).Rand())
	require.NoError(t, err)
	return train, test
}

func metrics(t *testing.T, kinds ...evaluation.Kind) []evaluation.Metric {
	t.Helper()
	ms, err := evaluation.NewAll(kinds, evaluation.WithWorkers(2))
	require.NoError(t, err)
	return ms
}

func TestSolver_Train(t *testing.T) {
	train, test := splitData(t)
	m, err := model.New(model.MethodPMF, model.DefaultConfig())
	require.NoError(t, err)

	var out bytes.Buffer
	var iterations []int
	var evaluated []string
	s := New(m,
		WithMaxIterations(4),
		WithEvalIterations(2),
		WithProgress(&out),
		WithIterationHook(func(it Iteration) { iterations = append(iterations, it.Iteration) }),
		WithEvaluationHook(func(name string, _ time.Duration, err error) {
			assert.NoError(t, err)
			evaluated = append(evaluated, name)
		}),
	)
	assert.Equal(t, StateCreated, s.State())

	h, err := s.Train(t.Context(), train, test, metrics(t, evaluation.KindRMSE, evaluation.KindTopN)...)
	require.NoError(t, err)
	assert.Equal(t, StateStopped, s.State())
	assert.Equal(t, []int{1, 2, 3, 4}, iterations)
	assert.Len(t, evaluated, 6)

	require.Len(t, h.Iterations, 3)
	for i, it := range h.Iterations {
		assert.Equal(t, 2*i, it.Iteration)
		require.Len(t, it.Results, 2)
	}
	assert.Zero(t, h.Iterations[0].Loss)
	assert.Less(t, h.Iterations[2].Loss, h.Iterations[1].Loss)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, 4, last.Iteration)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6) // rule, header, three rows, rule
	assert.True(t, strings.HasPrefix(lines[1], "Iters|    Time|Train Loss|    RMSE|     P@1|"))
	assert.True(t, strings.HasPrefix(lines[2], "    0|"))
	assert.True(t, strings.HasSuffix(lines[2], "|"))
}

func TestSolver_TrainTwice(t *testing.T) {
	train, _ := splitData(t)
	m, err := model.New(model.MethodPopularity, model.DefaultConfig())
	require.NoError(t, err)

	s := New(m, WithMaxIterations(1))
	_, err = s.Train(t.Context(), train, nil)
	require.NoError(t, err)
	_, err = s.Train(t.Context(), train, nil)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestSolver_NoValidation(t *testing.T) {
	train, _ := splitData(t)
	m, err := model.New(model.MethodPopularity, model.DefaultConfig())
	require.NoError(t, err)

	h, err := New(m, WithMaxIterations(2)).Train(t.Context(), train, nil, metrics(t, evaluation.KindRMSE)...)
	require.NoError(t, err)
	require.Len(t, h.Iterations, 3)
	assert.Empty(t, h.Iterations[2].Results)
}

func TestSolver_Canceled(t *testing.T) {
	train, _ := splitData(t)
	m, err := model.New(model.MethodPMF, model.DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	s := New(m, WithMaxIterations(100), WithIterationHook(func(it Iteration) {
		if it.Iteration == 2 {
			cancel()
		}
	}))
	h, err := s.Train(ctx, train, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateStopped, s.State())
	require.Len(t, h.Iterations, 3)
}

func TestSolver_ResetError(t *testing.T) {
	train, _ := splitData(t)
	cfg := model.DefaultConfig()
	cfg.ItemGroup = 7
	m, err := model.New(model.MethodPMF, cfg)
	require.NoError(t, err)

	_, err = New(m).Train(t.Context(), train, nil)
	require.ErrorIs(t, err, dataset.ErrInvalidGroup)
}

func TestSGD_Decay(t *testing.T) {
	train, test := splitData(t)
	m, err := model.NewPMF(model.DefaultConfig())
	require.NoError(t, err)

	s := NewSGD(m, WithMaxIterations(3), WithLearnRate(0.05), WithDecay(true), WithSampleSize(10))
	h, err := s.Train(t.Context(), train, test, metrics(t, evaluation.KindMAE)...)
	require.NoError(t, err)
	require.Len(t, h.Iterations, 4)

	// 30 steps: the last update used steps = 29.
	want := 0.05 / (1 + 0.05*0.01*29)
	assert.InDelta(t, want, s.LearnRate(), 1e-12)
	assert.Equal(t, 0.0, New(m).LearnRate())
}

func TestSGD_ConstantRate(t *testing.T) {
	train, _ := splitData(t)
	m, err := model.NewBPR(model.DefaultConfigFor(model.MethodBPR))
	require.NoError(t, err)

	s := NewSGD(m, WithMaxIterations(2), WithLearnRate(0.2))
	_, err = s.Train(t.Context(), train, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.2, s.LearnRate())
}

func TestSolver_Test(t *testing.T) {
	train, test := splitData(t)
	m, err := model.New(model.MethodItemCF, model.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, m.Reset(train))

	var out bytes.Buffer
	results, err := New(m, WithProgress(&out)).Test(t.Context(), test, train, metrics(t, evaluation.KindTopN)...)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, out.String(), "    Time|     P@1|")

	_, err = New(m).Test(t.Context(), train.Slice(0, 0), train, metrics(t, evaluation.KindTopN)...)
	require.ErrorIs(t, err, evaluation.ErrEmptyValidation)
}
