package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Level mirrors zerolog levels so callers don't import zerolog for checks.
type Level int8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	TraceLevel Level = -1
)

// Common field names.
const (
	ConnField    = "cid"
	SessionField = "sid"
	RoleField    = "role"
)

var pid = os.Getpid()

type Logger struct {
	logger *zerolog.Logger
}

// NewWriter makes a JSON logger.
func NewWriter(w io.Writer, isDebug bool) *Logger {
	zerolog.SetGlobalLevel(level(isDebug))
	logger := zerolog.New(w).With().Timestamp().Int("pid", pid).Logger()
	return &Logger{logger: &logger}
}

// NewConsole makes a human-readable logger.
// The tag param is a short service name shown in every line.
func NewConsole(isDebug bool, tag string, noColor bool) *Logger {
	zerolog.SetGlobalLevel(level(isDebug))
	zerolog.TimeFieldFormat = time.RFC3339Nano
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.0000", NoColor: noColor,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			"pid",
			zerolog.LevelFieldName,
			"s",
			ConnField,
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{"s", "pid", ConnField},
	}
	logger := zerolog.New(output).With().
		Str("pid", fmt.Sprintf("%4x", pid)).
		Str("s", tag).
		Timestamp().Logger()
	return &Logger{logger: &logger}
}

func Default() *Logger { return &Logger{logger: &log.Logger} }

// Nop discards everything, handy in tests.
func Nop() *Logger { l := zerolog.Nop(); return &Logger{logger: &l} }

func level(isDebug bool) zerolog.Level {
	if isDebug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func (l *Logger) GetLevel() Level { return Level(l.logger.GetLevel()) }

// With creates a child logger context, finish it with Extend.
func (l *Logger) With() zerolog.Context { return l.logger.With() }

// Extend turns a context made by With into a new logger.
func (l *Logger) Extend(ctx zerolog.Context) *Logger {
	logger := ctx.Logger()
	return &Logger{logger: &logger}
}

// Debug starts a new message with debug level.
// You must call Msg on the returned event in order to send the event.
func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }

func (l *Logger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }

// Fatal starts a new message with fatal level. The os.Exit(1) function
// is called by the Msg method.
func (l *Logger) Fatal() *zerolog.Event { return l.logger.Fatal() }
