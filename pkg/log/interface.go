// Package log provides a structured logging interface for dsft estimators.
//
// The Logger interface mirrors log/slog so the backend can be swapped: the
// package ships a slog backend (NewSlogLogger), a zerolog backend
// (NewZerologLogger), a no-op logger and a TestLogger that captures JSON lines
// for assertions.
//
// Example usage:
//
//	logger := log.NewSlogLogger(slog.Default()).With(
//	    log.ModelNameKey, "DSFT",
//	)
//	logger.Debug("fit completed",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 1000,
//	)
package log

import (
	"context"
)

// Logger is a structured logger compatible with log/slog.
type Logger interface {
	// Debug logs a debug-level message with key-value fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with key-value fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with key-value fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message. Pass the error under ErrAttrKey to
	// get its stack trace attached by ErrFmtHandler.
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level with slog-compatible values.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider hands out loggers, mainly so tests can inject a TestLogger.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
