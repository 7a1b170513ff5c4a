// Package log provides the structured logging interface used by carprice.
//
// The Logger interface mirrors log/slog's key/value calling convention so the
// trainer and predictor can log through zerolog, slog or an in-memory test
// logger without knowing which one is installed.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "LinearRegression",
//	    log.EstimatorIDKey, runID,
//	)
//	logger.Info("Training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, len(samples),
//	)

package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. If the first field passed to Error
// is an error value it is attached as the "error" attribute, so
//
//	logger.Error("Training failed", err, log.OperationKey, log.OperationFit)
//
// and
//
//	logger.Error("Training failed", "error", err, log.OperationKey, log.OperationFit)
//
// are equivalent.
type Logger interface {
	// Debug logs detailed diagnostic information, such as per-iteration loss.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs potentially problematic situations that do not stop execution.
	Warn(msg string, fields ...any)

	// Error logs error conditions.
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every subsequent record.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at level. Use it to
	// skip building expensive fields.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
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

// normalizeFields moves a leading error value behind the "error" key.
func normalizeFields(fields []any) []any {
	if len(fields) == 0 {
		return fields
	}
	if err, ok := fields[0].(error); ok {
		out := make([]any, 0, len(fields)+1)
		out = append(out, ErrAttrKey, err)
		return append(out, fields[1:]...)
	}
	return fields
}
