/*
Package rtlog provides structured logging for relayrt using zerolog.

It wraps the zerolog library with a global logger, configurable level and
output format, and helper constructors for context loggers scoped to a
worker, task, or OS thread ID. When the process is supervised by systemd
(detected via a non-empty INVOCATION_ID environment variable) the console
writer omits its own timestamp column, since the journal already stamps
every line it receives.
*/
package rtlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance, set by Init.
var Logger zerolog.Logger

// Level is a log verbosity level.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

func init() {
	Init(Config{Level: InfoLevel, Output: os.Stderr})
}

// Init (re)configures the global Logger.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
		return
	}

	cw := zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	if underSystemd() {
		// the journal already timestamps every line it receives
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
		Logger = zerolog.New(cw)
		return
	}
	Logger = zerolog.New(cw).With().Timestamp().Logger()
}

func underSystemd() bool {
	return os.Getenv("INVOCATION_ID") != ""
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithWorker returns a child logger tagged with a worker name.
func WithWorker(name string) zerolog.Logger {
	return Logger.With().Str("worker", name).Logger()
}

// WithTask returns a child logger tagged with a supervised task name.
func WithTask(name string) zerolog.Logger {
	return Logger.With().Str("task", name).Logger()
}

// WithTID returns a child logger tagged with an OS thread ID.
func WithTID(tid int) zerolog.Logger {
	return Logger.With().Int("tid", tid).Logger()
}

func Info(msg string)  { Logger.Info().Msg(msg) }
func Debug(msg string) { Logger.Debug().Msg(msg) }
func Warn(msg string)  { Logger.Warn().Msg(msg) }
func Error(msg string) { Logger.Error().Msg(msg) }

// Errorf logs msg at error level with an attached error value.
func Errorf(msg string, err error) { Logger.Error().Err(err).Msg(msg) }

// Fatal logs msg at fatal level and terminates the process.
func Fatal(msg string) { Logger.Fatal().Msg(msg) }
