package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/ridedispatch/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger mirrors the core no-op logger.
type NopLogger = corelogger.NopLogger

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// Options tune the zerolog adapter.
type Options struct {
	// Out defaults to os.Stderr so that console output on stdout stays clean.
	Out   io.Writer
	Level corelogger.Level
}

// New returns an info level Logger for the given component.
func New(component string) Logger {
	return NewZerologLogger(component, Options{Level: corelogger.LevelInfo})
}

// NewZerologLogger creates a ZerologLogger using the APP_ENV environment
// variable to determine the output format. All logs include the provided
// component field.
func NewZerologLogger(component string, opts Options) *ZerologLogger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(out).Level(zerologLevel(opts.Level)).
		With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

// With returns a child logger for another component sharing the same sink.
func (l *ZerologLogger) With(component string) *ZerologLogger {
	return &ZerologLogger{log: l.log.With().Str("component", component).Logger()}
}

func zerologLevel(l corelogger.Level) zerolog.Level {
	switch l {
	case corelogger.LevelDebug:
		return zerolog.DebugLevel
	case corelogger.LevelWarn:
		return zerolog.WarnLevel
	case corelogger.LevelError:
		return zerolog.ErrorLevel
	case corelogger.LevelDisabled:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
