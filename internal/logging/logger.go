// Package logging provides the structured logger used throughout the
// scheduler. Modeled directly on the teacher's pkg/reporting.Logger: a thin
// wrapper over zerolog with level configuration, field-based child loggers,
// and a no-op logger (Nop) as the fallback. There is no package-level
// global logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level mirrors the teacher's LogLevel string enum.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format mirrors the teacher's LogFormat (text vs json console output).
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config configures a Logger.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger wraps a zerolog.Logger with the scheduler's field conventions.
type Logger struct {
	z zerolog.Logger
}

// New builds a Logger from cfg, defaulting to stderr and info level. Only
// FormatText selects console text output; any other Format, including the
// empty one, writes JSON.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	out := cfg.Output
	if cfg.Format == FormatText {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.RFC3339, NoColor: true}
	}
	z := zerolog.New(out).With().Timestamp().Logger()
	switch cfg.Level {
	case LevelDebug:
		z = z.Level(zerolog.DebugLevel)
	case LevelWarn:
		z = z.Level(zerolog.WarnLevel)
	case LevelError:
		z = z.Level(zerolog.ErrorLevel)
	default:
		z = z.Level(zerolog.InfoLevel)
	}
	return &Logger{z: z}
}

// Nop returns a logger that discards everything — used as the zero-value
// fallback so internal components never need a nil check before logging.
func Nop() *Logger {
	return &Logger{z: zerolog.Nop()}
}

func (l *Logger) event(level zerolog.Level) *zerolog.Event {
	if l == nil {
		nop := zerolog.Nop()
		return nop.Debug()
	}
	switch level {
	case zerolog.DebugLevel:
		return l.z.Debug()
	case zerolog.WarnLevel:
		return l.z.Warn()
	case zerolog.ErrorLevel:
		return l.z.Error()
	default:
		return l.z.Info()
	}
}

func addFields(e *zerolog.Event, fields ...interface{}) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, fields[i+1])
	}
	return e
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	addFields(l.event(zerolog.DebugLevel), fields...).Msg(msg)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	addFields(l.event(zerolog.InfoLevel), fields...).Msg(msg)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	addFields(l.event(zerolog.WarnLevel), fields...).Msg(msg)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	addFields(l.event(zerolog.ErrorLevel), fields...).Msg(msg)
}

// WithFields returns a child logger with the given fields attached to every
// subsequent entry.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	if l == nil {
		l = Nop()
	}
	ctx := l.z.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{z: ctx.Logger()}
}
