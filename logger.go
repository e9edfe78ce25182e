package segquery

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with segquery-specific context.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithSegment adds a segment ID field to the logger.
func (l *Logger) WithSegment(id int64) *Logger {
	return &Logger{
		Logger: l.Logger.With("segment", id),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithField adds a schema field ID to the logger.
func (l *Logger) WithField(id int64) *Logger {
	return &Logger{
		Logger: l.Logger.With("field", id),
	}
}

// LogSearch logs a fan-out search operation.
func (l *Logger) LogSearch(ctx context.Context, k, queries, segments int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"queries", queries,
			"segments", segments,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"k", k,
			"queries", queries,
			"segments", segments,
			"duration", duration,
		)
	}
}

// LogMaskAssembly logs a selection mask assembly.
func (l *Logger) LogMaskAssembly(ctx context.Context, segmentID int64, shards, bits, selected int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "mask assembly failed",
			"segment", segmentID,
			"shards", shards,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "mask assembled",
			"segment", segmentID,
			"shards", shards,
			"bits", bits,
			"selected", selected,
		)
	}
}

// LogSegmentSearch logs one segment search of the fan-out.
func (l *Logger) LogSegmentSearch(ctx context.Context, segmentID int64, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "segment search failed",
			"segment", segmentID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "segment search completed",
			"segment", segmentID,
			"duration", duration,
		)
	}
}
