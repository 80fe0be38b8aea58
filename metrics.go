package recgo

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordIteration is called after each training iteration with the
	// iteration's own duration and the total loss.
	RecordIteration(iteration int, duration time.Duration, loss float64)

	// RecordEvaluation is called after each metric evaluation.
	RecordEvaluation(metric string, duration time.Duration, err error)

	// RecordSnapshot is called after a model or dataset is saved.
	RecordSnapshot(bytes int, duration time.Duration, err error)

	// RecordSplit is called after a dataset is split.
	RecordSplit(train, test int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIteration(int, time.Duration, float64)   {}
func (NoopMetricsCollector) RecordEvaluation(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordSnapshot(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordSplit(int, int)                          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IterationCount      atomic.Int64
	IterationTotalNanos atomic.Int64
	lastLossBits        atomic.Uint64
	EvaluationCount     atomic.Int64
	EvaluationErrors    atomic.Int64
	EvaluationNanos     atomic.Int64
	SnapshotCount       atomic.Int64
	SnapshotErrors      atomic.Int64
	SnapshotBytes       atomic.Int64
	SplitCount          atomic.Int64
	SplitTrainRecords   atomic.Int64
	SplitTestRecords    atomic.Int64
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(_ int, duration time.Duration, loss float64) {
	b.IterationCount.Add(1)
	b.IterationTotalNanos.Add(duration.Nanoseconds())
	b.lastLossBits.Store(math.Float64bits(loss))
}

// RecordEvaluation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluation(_ string, duration time.Duration, err error) {
	b.EvaluationCount.Add(1)
	b.EvaluationNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EvaluationErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(bytes int, _ time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(int64(bytes))
}

// RecordSplit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSplit(train, test int) {
	b.SplitCount.Add(1)
	b.SplitTrainRecords.Add(int64(train))
	b.SplitTestRecords.Add(int64(test))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IterationCount:     b.IterationCount.Load(),
		IterationAvgNanos:  avg(b.IterationTotalNanos.Load(), b.IterationCount.Load()),
		LastLoss:           math.Float64frombits(b.lastLossBits.Load()),
		EvaluationCount:    b.EvaluationCount.Load(),
		EvaluationErrors:   b.EvaluationErrors.Load(),
		EvaluationAvgNanos: avg(b.EvaluationNanos.Load(), b.EvaluationCount.Load()),
		SnapshotCount:      b.SnapshotCount.Load(),
		SnapshotErrors:     b.SnapshotErrors.Load(),
		SnapshotBytes:      b.SnapshotBytes.Load(),
		SplitCount:         b.SplitCount.Load(),
		SplitTrainRecords:  b.SplitTrainRecords.Load(),
		SplitTestRecords:   b.SplitTestRecords.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IterationCount     int64
	IterationAvgNanos  int64
	LastLoss           float64
	EvaluationCount    int64
	EvaluationErrors   int64
	EvaluationAvgNanos int64
	SnapshotCount      int64
	SnapshotErrors     int64
	SnapshotBytes      int64
	SplitCount         int64
	SplitTrainRecords  int64
	SplitTestRecords   int64
}
