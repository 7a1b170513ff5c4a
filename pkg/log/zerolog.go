package log

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts zerolog.Logger to Logger.
type ZerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog logger.
func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{l: l}
}

func (z *ZerologLogger) Debug(msg string, fields ...any) { z.emit(z.l.Debug(), msg, fields) }
func (z *ZerologLogger) Info(msg string, fields ...any) { z.emit(z.l.Info(), msg, fields) }
func (z *ZerologLogger) Warn(msg string, fields ...any) { z.emit(z.l.Warn(), msg, fields) }
func (z *ZerologLogger) Error(msg string, fields ...any) { z.emit(z.l.Error(), msg, fields) }

func (z *ZerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	fields = normalizeFields(fields)
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Msg(msg)
}

// With returns a child logger carrying fields.
func (z *ZerologLogger) With(fields ...any) Logger {
	fields = normalizeFields(fields)
	if len(fields) == 0 {
		return z
	}
	return &ZerologLogger{l: z.l.With().Fields(fields).Logger()}
}

// Enabled reports whether records at level pass the logger's level and the
// zerolog global level.
func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	zl := toZerologLevel(level)
	return zl >= z.l.GetLevel() && zl >= zerolog.GlobalLevel()
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
