package entigo

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with entigo-specific context.
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

// WithEntityType adds the entity type field to the logger.
func (l *Logger) WithEntityType(et string) *Logger {
	return &Logger{
		Logger: l.Logger.With("entity_type", et),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(id int64, err error) {
	if err != nil {
		l.Error("add failed",
			"id", id,
			"error", err,
		)
	} else {
		l.Debug("add completed",
			"id", id,
		)
	}
}

// LogAddIndex logs an index registration.
func (l *Logger) LogAddIndex(attribute string, backfilled int) {
	l.Debug("index registered",
		"attribute", attribute,
		"backfilled", backfilled,
	)
}

// LogBuild logs a build operation.
func (l *Logger) LogBuild(count int, err error) {
	if err != nil {
		l.Error("build failed",
			"count", count,
			"error", err,
		)
	} else {
		l.Info("build completed",
			"count", count,
		)
	}
}

// LogSave logs a snapshot save operation.
func (l *Logger) LogSave(bytes int64, err error) {
	if err != nil {
		l.Error("save failed",
			"error", err,
		)
	} else {
		l.Info("save completed",
			"bytes", bytes,
		)
	}
}

// LogLoad logs a snapshot load operation.
func (l *Logger) LogLoad(count int, err error) {
	if err != nil {
		l.Error("load failed",
			"error", err,
		)
	} else {
		l.Info("load completed",
			"count", count,
		)
	}
}
