package solver

import (
	"io"
	"log/slog"
	"time"
)

// Option configures a Solver.
type Option func(*options)

type options struct {
	maxIterations  int
	evalIterations int
	learnRate      float64
	decay          bool
	sampleSize     int
	logger         *slog.Logger
	progress       io.Writer
	onIteration    func(Iteration)
	onEvaluation   func(metric string, d time.Duration, err error)
}

func defaultOptions() options {
	return options{
		maxIterations:  10,
		evalIterations: 1,
		learnRate:      0.1,
		logger:         slog.New(slog.DiscardHandler),
		progress:       io.Discard,
	}
}

// WithMaxIterations sets the number of training iterations (default: 10).
func WithMaxIterations(n int) Option {
	return func(o *options) { o.maxIterations = n }
}

// WithEvalIterations evaluates every n iterations (default: 1).
func WithEvalIterations(n int) Option {
	return func(o *options) { o.evalIterations = n }
}

// WithLearnRate sets the initial SGD learning rate (default: 0.1).
func WithLearnRate(lr float64) Option {
	return func(o *options) { o.learnRate = lr }
}

// WithDecay enables learning-rate decay:
//
//	lr = lr0 / (1 + lr0 * lambda * steps)
func WithDecay(enabled bool) Option {
	return func(o *options) { o.decay = enabled }
}

// WithSampleSize limits each SGD iteration to the first n training records.
// Zero uses all records.
func WithSampleSize(n int) Option {
	return func(o *options) { o.sampleSize = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProgress writes the progress table to w.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.progress = w
		}
	}
}

// WithIterationHook is called after every training iteration.
func WithIterationHook(fn func(Iteration)) Option {
	return func(o *options) { o.onIteration = fn }
}

// WithEvaluationHook is called after every metric evaluation.
func WithEvaluationHook(fn func(metric string, d time.Duration, err error)) Option {
	return func(o *options) { o.onEvaluation = fn }
}
