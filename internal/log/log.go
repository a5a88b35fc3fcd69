// Package log configures the global zerolog logger used by the CLI and the
// daemon.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// LogLevel is a zerolog level name usable as a pflag value.
type LogLevel string

const (
	TRACE    LogLevel = "trace"
	DEBUG    LogLevel = "debug"
	INFO     LogLevel = "info"
	WARN     LogLevel = "warn"
	ERROR    LogLevel = "error"
	DISABLED LogLevel = "disabled"
)

var Levels = []LogLevel{TRACE, DEBUG, INFO, WARN, ERROR, DISABLED}

var _ pflag.Value = (*LogLevel)(nil)

// LogFile is the file opened by InitWithLogLevel, if any.
var LogFile *os.File

func (ll LogLevel) String() string {
	return string(ll)
}

func (ll *LogLevel) Set(v string) error {
	if _, err := ll.parse(LogLevel(strings.ToLower(v))); err != nil {
		return err
	}
	*ll = LogLevel(strings.ToLower(v))
	return nil
}

func (ll LogLevel) Type() string {
	return "LogLevel"
}

// Zerolog returns the zerolog level for ll.
func (ll LogLevel) Zerolog() (zerolog.Level, error) {
	return ll.parse(ll)
}

func (LogLevel) parse(v LogLevel) (zerolog.Level, error) {
	switch v {
	case TRACE:
		return zerolog.TraceLevel, nil
	case DEBUG:
		return zerolog.DebugLevel, nil
	case INFO, "":
		return zerolog.InfoLevel, nil
	case WARN:
		return zerolog.WarnLevel, nil
	case ERROR:
		return zerolog.ErrorLevel, nil
	case DISABLED:
		return zerolog.Disabled, nil
	}
	names := make([]string, len(Levels))
	for i, l := range Levels {
		names[i] = string(l)
	}
	return zerolog.NoLevel, fmt.Errorf("invalid log level %q (options: %s)", v, strings.Join(names, ", "))
}

// InitWithLogLevel points the global logger at stderr and, when logPath is
// set, at a log file as well.
func InitWithLogLevel(logLevel LogLevel, logPath string) error {
	level, err := logLevel.Zerolog()
	if err != nil {
		return fmt.Errorf("failed to convert log level: %w", err)
	}

	writers := []io.Writer{
		&zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: os.Stderr}},
			Level:  level,
		},
	}
	if logPath != "" {
		LogFile, err = os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: LogFile},
			Level:  level,
		})
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().
		Logger()
	return nil
}

// Close releases the log file, if one was opened.
func Close() error {
	if LogFile == nil {
		return nil
	}
	err := LogFile.Close()
	LogFile = nil
	return err
}
