package goldalign

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with goldalign-specific context.
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
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithExample adds the predicted/reference token counts of an example to
// the logger.
func (l *Logger) WithExample(predicted, reference int) *Logger {
	return &Logger{
		Logger: l.Logger.With("predicted_tokens", predicted, "reference_tokens", reference),
	}
}

// LogDroppedEntity logs a gold entity that could not be projected onto the
// predicted frame and was dropped.
func (l *Logger) LogDroppedEntity(label, text string, occurrences int) {
	l.Warn("dropped unprojectable entity",
		"label", label,
		"text", text,
		"occurrences", occurrences,
	)
}
