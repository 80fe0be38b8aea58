package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/recgo"
)

var _ recgo.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector implements recgo.MetricsCollector.
type PrometheusCollector struct {
	iterations     prometheus.Counter
	iterationTime  prometheus.Histogram
	loss           prometheus.Gauge
	evaluations    *prometheus.CounterVec
	evaluationTime *prometheus.HistogramVec
	snapshots      *prometheus.CounterVec
	snapshotBytes  prometheus.Gauge
	splitRecords   *prometheus.GaugeVec
}

// NewPrometheusCollector creates the collectors and registers them with reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recgo_iterations_total",
			Help: "Training iterations completed",
		}),
		iterationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recgo_iteration_duration_seconds",
			Help:    "Duration of one training iteration",
			Buckets: prometheus.DefBuckets,
		}),
		loss: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "recgo_train_loss",
			Help: "Training loss after the last iteration",
		}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recgo_evaluations_total",
			Help: "Metric evaluations",
		}, []string{"metric", "status"}),
		evaluationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recgo_evaluation_duration_seconds",
			Help:    "Duration of one metric evaluation",
			Buckets: prometheus.DefBuckets,
		}, []string{"metric"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recgo_snapshots_total",
			Help: "Snapshots written",
		}, []string{"status"}),
		snapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "recgo_snapshot_bytes",
			Help: "Size of the last snapshot",
		}),
		splitRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "recgo_split_records",
			Help: "Records on each side of the last split",
		}, []string{"side"}),
	}
	reg.MustRegister(
		c.iterations,
		c.iterationTime,
		c.loss,
		c.evaluations,
		c.evaluationTime,
		c.snapshots,
		c.snapshotBytes,
		c.splitRecords,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *PrometheusCollector) RecordIteration(_ int, d time.Duration, loss float64) {
	c.iterations.Inc()
	c.iterationTime.Observe(d.Seconds())
	c.loss.Set(loss)
}

func (c *PrometheusCollector) RecordEvaluation(metric string, d time.Duration, err error) {
	c.evaluations.WithLabelValues(metric, status(err)).Inc()
	c.evaluationTime.WithLabelValues(metric).Observe(d.Seconds())
}

func (c *PrometheusCollector) RecordSnapshot(bytes int, _ time.Duration, err error) {
	c.snapshots.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.snapshotBytes.Set(float64(bytes))
	}
}

func (c *PrometheusCollector) RecordSplit(train, test int) {
	c.splitRecords.WithLabelValues("train").Set(float64(train))
	c.splitRecords.WithLabelValues("test").Set(float64(test))
}
