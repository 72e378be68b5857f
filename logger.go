package stardex

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with stardex-specific helpers, providing
// structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses the default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// LogSync logs the outcome of a full fetch.
func (l *Logger) LogSync(ctx context.Context, records, skipped int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sync failed", "error", err)
		return
	}
	if skipped > 0 {
		l.WarnContext(ctx, "sync completed with skips",
			"records", records,
			"skipped", skipped,
		)
		return
	}
	l.InfoContext(ctx, "sync completed", "records", records)
}

// LogBuild logs an archive build.
func (l *Logger) LogBuild(ctx context.Context, path string, records int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "archive build failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "archive built",
		"path", path,
		"records", records,
	)
}

// LogOpen logs an archive open attempt.
func (l *Logger) LogOpen(ctx context.Context, path string, records int, err error) {
	if err != nil {
		l.WarnContext(ctx, "archive open failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "archive opened",
		"path", path,
		"records", records,
	)
}

// LogSwap logs a store swap after a successful renew.
func (l *Logger) LogSwap(ctx context.Context, records int) {
	l.InfoContext(ctx, "store swapped", "records", records)
}
