// Package parallel provides the two scheduling disciplines used for
// training and evaluation.
//
// Executor splits an index range statically: worker tid of n handles
// [first+tid*span/n, first+(tid+1)*span/n). Use it when items cost about the
// same. Accumulate and AccumulateAndReduce give each worker a private
// partial and combine them after the join.
//
// TaskPool is a FIFO queue drained by a fixed set of workers. Use it when
// per-item cost varies, such as one solve per user row or one
// recommendation per validation user.
//
// Neither discipline locks caller data. Each task must own the rows it
// writes.
package parallel
