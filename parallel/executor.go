package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Executor fans work out over a fixed number of goroutines, splitting index
// ranges statically. Each call blocks until every goroutine has returned.
type Executor struct {
	workers int
}

// New creates an executor. A non-positive count defaults to runtime.NumCPU.
func New(workers int) *Executor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Executor{workers: workers}
}

// Workers returns the goroutine count.
func (e *Executor) Workers() int { return e.workers }

// InParallel runs fn once per worker with its id and the worker count.
func (e *Executor) InParallel(fn func(tid, n int)) {
	_ = e.Run(context.Background(), func(_ context.Context, tid, n int) error {
		fn(tid, n)
		return nil
	})
}

// Run is InParallel for fallible work. The first error cancels ctx for the
// other workers and is returned after all of them exit.
func (e *Executor) Run(ctx context.Context, fn func(ctx context.Context, tid, n int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	n := e.workers
	for tid := range n {
		g.Go(func() error {
			return fn(ctx, tid, n)
		})
	}
	return g.Wait()
}

// span returns the half-open range of worker tid over [first, last).
func span(first, last, tid, n int) (int, int) {
	size := last - first
	return first + tid*size/n, first + (tid+1)*size/n
}

// ForRange hands every worker its contiguous share of [first, last).
// Empty shares are still delivered so tid always covers 0..n-1.
func (e *Executor) ForRange(first, last int, fn func(tid, begin, end int)) {
	if last < first {
		last = first
	}
	e.InParallel(func(tid, n int) {
		begin, end := span(first, last, tid, n)
		fn(tid, begin, end)
	})
}

// For calls fn for every index in [first, last).
func (e *Executor) For(first, last int, fn func(i int)) {
	e.ForRange(first, last, func(_, begin, end int) {
		for i := begin; i < end; i++ {
			fn(i)
		}
	})
}

// Accumulate folds each worker's share of [first, last) into its own
// partial, starting from init. It returns one partial per worker.
func Accumulate[T any](e *Executor, first, last int, init T, fn func(acc T, i int) T) []T {
	partials := make([]T, e.workers)
	e.ForRange(first, last, func(tid, begin, end int) {
		acc := init
		for i := begin; i < end; i++ {
			acc = fn(acc, i)
		}
		partials[tid] = acc
	})
	return partials
}

// AccumulateAndReduce folds the partials of Accumulate sequentially with
// reduce, which must be associative.
func AccumulateAndReduce[T any](e *Executor, first, last int, init T, fn func(acc T, i int) T, reduce func(a, b T) T) T {
	partials := Accumulate(e, first, last, init, fn)
	out := partials[0]
	for _, p := range partials[1:] {
		out = reduce(out, p)
	}
	return out
}
