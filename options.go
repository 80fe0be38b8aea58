package recgo

import (
	"io"
	"log/slog"

	"github.com/hupe1980/recgo/codec"
	"github.com/hupe1980/recgo/evaluation"
	"github.com/hupe1980/recgo/persistence"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	progress         io.Writer

	evaluations    []evaluation.Kind
	userGroup      int
	itemGroup      int
	workers        int
	maxIterations  int
	evalIterations int
	sampleSize     int

	sgd       bool
	learnRate float64
	decay     bool

	codec       codec.Codec
	compression persistence.Compression
	snapshot    []persistence.Option
}

// Option configures Train, Evaluate and the snapshot helpers.
type Option func(*options)

// WithLogger configures structured logging. Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := recgo.NewJSONLogger(slog.LevelInfo)
//	report, _ := recgo.Train(ctx, m, train, test, recgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &recgo.BasicMetricsCollector{}
//	_, _ = recgo.Train(ctx, m, train, test, recgo.WithMetricsCollector(metrics))
//	fmt.Println(metrics.GetStats().IterationCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithProgress writes the progress table to w. Default: discarded.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// WithEvaluations selects the metrics evaluated on the validation set.
func WithEvaluations(kinds ...evaluation.Kind) Option {
	return func(o *options) {
		o.evaluations = kinds
	}
}

// WithGroups names the user and item groups used by the metrics.
// Default: 0 and 1.
func WithGroups(user, item int) Option {
	return func(o *options) {
		o.userGroup, o.itemGroup = user, item
	}
}

// WithWorkers bounds metric parallelism. 0 uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMaxIterations sets the number of training iterations.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithEvalIterations evaluates every n iterations.
func WithEvalIterations(n int) Option {
	return func(o *options) {
		o.evalIterations = n
	}
}

// WithSampleSize limits the records used for the loss column. 0 uses all.
func WithSampleSize(n int) Option {
	return func(o *options) {
		o.sampleSize = n
	}
}

// WithSGD trains stochastic models with per-record updates at the given
// learning rate instead of their own iteration. Other models ignore it.
func WithSGD(learnRate float64) Option {
	return func(o *options) {
		o.sgd = true
		o.learnRate = learnRate
	}
}

// WithDecay decays the SGD learning rate by the model's regularization.
func WithDecay(enabled bool) Option {
	return func(o *options) {
		o.decay = enabled
	}
}

// WithCodec selects the snapshot codec. If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression selects the snapshot compression.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithSnapshotOptions passes persistence options through to the snapshot
// helpers. They are applied after WithCodec and WithCompression.
func WithSnapshotOptions(opts ...persistence.Option) Option {
	return func(o *options) {
		o.snapshot = append(o.snapshot, opts...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		progress:         io.Discard,
		userGroup:        0,
		itemGroup:        1,
		maxIterations:    10,
		evalIterations:   1,
		learnRate:        0.1,
		codec:            codec.Default,
		compression:      persistence.CompressionZstd,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
