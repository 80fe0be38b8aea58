package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_Ranges(t *testing.T) {
	e := New(4)
	begins := make([]int, 4)
	ends := make([]int, 4)
	e.ForRange(3, 13, func(tid, begin, end int) {
		begins[tid], ends[tid] = begin, end
	})
	assert.Equal(t, []int{3, 5, 8, 10}, begins)
	assert.Equal(t, []int{5, 8, 10, 13}, ends)

	t.Run("more workers than items", func(t *testing.T) {
		hits := make([]int32, 3)
		New(8).For(0, 3, func(i int) { atomic.AddInt32(&hits[i], 1) })
		assert.Equal(t, []int32{1, 1, 1}, hits)
	})

	t.Run("default workers", func(t *testing.T) {
		assert.Positive(t, New(0).Workers())
	})
}

func TestAccumulateAndReduce(t *testing.T) {
	const n = 10_000
	for _, workers := range []int{1, 2, 4, 8} {
		e := New(workers)
		sum := AccumulateAndReduce(e, 0, n, 0,
			func(acc, i int) int { return acc + i },
			func(a, b int) int { return a + b },
		)
		assert.Equal(t, n*(n-1)/2, sum, "workers=%d", workers)

		partials := Accumulate(e, 0, n, 0, func(acc, _ int) int { return acc + 1 })
		assert.Len(t, partials, workers)
	}
}

func TestExecutor_Run(t *testing.T) {
	boom := errors.New("boom")
	err := New(4).Run(context.Background(), func(_ context.Context, tid, _ int) error {
		if tid == 2 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestTaskPool(t *testing.T) {
	p := NewTaskPool(3)
	results := make([]int, 100)
	for i := range results {
		require.NoError(t, p.Submit(func() { results[i] = i * i }))
	}
	p.Run()
	for i, v := range results {
		assert.Equal(t, i*i, v)
	}

	require.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
}

func TestTaskPool_EmptyRun(t *testing.T) {
	p := NewTaskPool(2)
	p.Run()
}

func TestDynamicFor(t *testing.T) {
	var sum atomic.Int64
	DynamicFor(4, 1, 101, func(i int) { sum.Add(int64(i)) })
	assert.Equal(t, int64(5050), sum.Load())
}
