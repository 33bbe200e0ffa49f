package cakes

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/cakes/knn"
)

// Logger wraps slog.Logger with cakes-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k)}
}

// WithAlgorithm adds an algorithm field to the logger.
func (l *Logger) WithAlgorithm(alg knn.Algorithm) *Logger {
	return &Logger{Logger: l.Logger.With("algorithm", alg.String())}
}

// WithDataset adds a dataset field to the logger.
func (l *Logger) WithDataset(name string) *Logger {
	return &Logger{Logger: l.Logger.With("dataset", name)}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{Logger: l.Logger.With("count", count)}
}

// LogBuild logs a tree construction.
func (l *Logger) LogBuild(ctx context.Context, dataset string, cardinality, clusters, depth int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"dataset", dataset,
			"cardinality", cardinality,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"dataset", dataset,
			"cardinality", cardinality,
			"clusters", clusters,
			"depth", depth,
		)
	}
}

// LogSearch logs a k-NN search.
func (l *Logger) LogSearch(ctx context.Context, alg knn.Algorithm, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"algorithm", alg.String(),
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"algorithm", alg.String(),
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogBatchSearch logs a batch of k-NN searches.
func (l *Logger) LogBatchSearch(ctx context.Context, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch search completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
	} else {
		l.DebugContext(ctx, "batch search completed",
			"count", count,
		)
	}
}

// LogRangeSearch logs a range search.
func (l *Logger) LogRangeSearch(ctx context.Context, radius float64, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "range search failed",
			"radius", radius,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "range search completed",
			"radius", radius,
			"results", resultsFound,
		)
	}
}

// LogSave logs writing a tree file.
func (l *Logger) LogSave(ctx context.Context, filename string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"filename", filename,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "tree saved",
			"filename", filename,
		)
	}
}

// LogLoad logs reading a tree file.
func (l *Logger) LogLoad(ctx context.Context, filename string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"filename", filename,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "tree loaded",
			"filename", filename,
		)
	}
}
