package recgo

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with recgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithMethod adds the model method to the logger.
func (l *Logger) WithMethod(method string) *Logger {
	return &Logger{
		Logger: l.Logger.With("method", method),
	}
}

// WithIteration adds an iteration field to the logger.
func (l *Logger) WithIteration(iter int) *Logger {
	return &Logger{
		Logger: l.Logger.With("iteration", iter),
	}
}

// WithK adds a k (list length) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogTrain logs the end of a training run.
func (l *Logger) LogTrain(ctx context.Context, method string, iterations int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "training failed",
			"method", method,
			"iterations", iterations,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "training completed",
			"method", method,
			"iterations", iterations,
			"elapsed", elapsed,
		)
	}
}

// LogEvaluation logs one metric evaluation.
func (l *Logger) LogEvaluation(ctx context.Context, metric string, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "evaluation failed",
			"metric", metric,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "evaluation completed",
			"metric", metric,
			"elapsed", elapsed,
		)
	}
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, name string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"name", name,
			"bytes", bytes,
		)
	}
}

// LogSplit logs a train/test split.
func (l *Logger) LogSplit(ctx context.Context, train, test int) {
	l.InfoContext(ctx, "dataset split",
		"train", train,
		"test", test,
	)
}
