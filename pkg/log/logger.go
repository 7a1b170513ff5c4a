package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// Output formats accepted by SetupLogger.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewNopLogger()
)

// GetLogger returns the process-wide logger. It is a no-op logger until
// SetupLogger or SetLogger is called, so library code can log unconditionally.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the process-wide logger. A nil logger installs a no-op logger.
func SetLogger(l Logger) {
	if l == nil {
		l = NewNopLogger()
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// SetupLogger installs the global logger for a command line program.
//
// "console" writes human readable lines through zerolog's ConsoleWriter.
// "json" writes one JSON object per line through log/slog using Cloud Logging
// field names, with cockroachdb stack traces attached to error attributes.
// Warnings raised with errors.Warn are routed to the installed logger.
func SetupLogger(level, format string, w io.Writer) error {
	lvl, err := ToLogLevel(level)
	if err != nil {
		return err
	}

	switch format {
	case FormatConsole, "":
		zl := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
			Level(toZerologLevel(lvl)).
			With().Timestamp().Logger()
		SetLogger(NewZerologLogger(zl))
		errors.SetZerologWarnFunc(func(warning error) {
			event := zl.Warn()
			if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
				event = event.EmbedObject(obj)
			}
			event.Msg(warning.Error())
		})
	case FormatJSON:
		ops := slog.HandlerOptions{
			AddSource: true,
			Level:     slog.Level(lvl),
			// Replace attributes to convert to CloudLogging format.
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				switch attr.Key {
				case slog.LevelKey:
					attr = slog.Attr{Key: "severity", Value: attr.Value}
				case slog.MessageKey:
					attr = slog.Attr{Key: "message", Value: attr.Value}
				case slog.SourceKey:
					attr = slog.Attr{Key: "logging.googleapis.com/sourceLocation", Value: attr.Value}
				}
				return attr
			},
		}
		logger := NewSlogLogger(WrapByErrFmtHandler(slog.NewJSONHandler(w, &ops)))
		SetLogger(logger)
		errors.SetZerologWarnFunc(func(warning error) {
			logger.Warn(warning.Error(), "warning", fmt.Sprintf("%T", warning))
		})
	default:
		return errors.NewValidationError("log_format", "must be console or json", format)
	}
	return nil
}

// ToLogLevel parses a level name.
func ToLogLevel(level string) (Level, error) {
	switch level {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("log_level", "must be debug, info, warn or error", level)
	}
}

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger creates a Logger backed by the given slog handler.
func NewSlogLogger(h slog.Handler) *SlogLogger {
	return &SlogLogger{l: slog.New(h)}
}

func (s *SlogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, normalizeFields(fields)...) }
func (s *SlogLogger) Info(msg string, fields ...any) { s.l.Info(msg, normalizeFields(fields)...) }
func (s *SlogLogger) Warn(msg string, fields ...any) { s.l.Warn(msg, normalizeFields(fields)...) }
func (s *SlogLogger) Error(msg string, fields ...any) { s.l.Error(msg, normalizeFields(fields)...) }

func (s *SlogLogger) With(fields ...any) Logger {
	return &SlogLogger{l: s.l.With(normalizeFields(fields)...)}
}

func (s *SlogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, slog.Level(level))
}

// nopLogger discards everything.
type nopLogger struct{}

// NewNopLogger returns a Logger that discards all records.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
func (n nopLogger) With(...any) Logger { return n }
func (nopLogger) Enabled(context.Context, Level) bool { return false }
