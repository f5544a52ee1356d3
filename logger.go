package zarrutil

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with zarrutil-specific context.
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
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithLocator adds a store locator field to the logger.
func (l *Logger) WithLocator(locator string) *Logger {
	return &Logger{
		Logger: l.Logger.With("locator", locator),
	}
}

// WithPath adds a node path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// LogList logs a store discovery operation.
func (l *Logger) LogList(ctx context.Context, locator string, arrays int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "list failed",
			"locator", locator,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "list completed",
			"locator", locator,
			"arrays", arrays,
		)
	}
}

// LogConsolidate logs a metadata consolidation operation.
func (l *Logger) LogConsolidate(ctx context.Context, locator string, entries int, dryRun bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "consolidate failed",
			"locator", locator,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "consolidate completed",
			"locator", locator,
			"entries", entries,
			"dry_run", dryRun,
		)
	}
}

// LogValidate logs a metadata validation operation.
func (l *Logger) LogValidate(ctx context.Context, locator string, valid bool, issues int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "validate failed",
			"locator", locator,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "validate completed",
			"locator", locator,
			"valid", valid,
			"issues", issues,
		)
	}
}

// LogRepair logs a metadata repair operation.
func (l *Logger) LogRepair(ctx context.Context, locator string, actions int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "repair failed",
			"locator", locator,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "repair completed",
			"locator", locator,
			"actions", actions,
		)
	}
}

// LogOpenDataset logs a dataset adapter operation.
func (l *Logger) LogOpenDataset(ctx context.Context, locator, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open dataset failed",
			"locator", locator,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "open dataset completed",
			"locator", locator,
			"path", path,
		)
	}
}
