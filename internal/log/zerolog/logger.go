// Package zerolog adapts github.com/rs/zerolog to the keyshift Logger.
package zerolog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	loglib "github.com/solatis/keyshift/internal/log"
)

type Logger struct {
	zerologger *zerolog.Logger
	fields     loglib.Fields
}

// Config selects level and output format.
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // json or text
}

// logMaxBytes truncates byte fields; larger payloads are not readable in a
// log line anyway.
const logMaxBytes = 10000

func NewLogger(zl *zerolog.Logger) *Logger {
	return &Logger{
		zerologger: zl,
	}
}

// NewStderrLogger builds a zerolog logger writing to stderr.
func NewStderrLogger(cfg Config) (*Logger, error) {
	return NewWriterLogger(os.Stderr, cfg)
}

// NewWriterLogger builds a zerolog logger writing to w.
func NewWriterLogger(w io.Writer, cfg Config) (*Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	switch cfg.Format {
	case "", "json":
	case "text":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return nil, fmt.Errorf("invalid log format %q (expected json or text)", cfg.Format)
	}

	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return NewLogger(&zl), nil
}

func (l *Logger) Trace(msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Trace(), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Debug(), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Info(msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Info(), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Warn(err error, msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Warn().Err(err), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Error(err error, msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Error().Err(err), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) WithFields(fields loglib.Fields) loglib.Logger {
	return &Logger{
		zerologger: l.zerologger,
		fields:     loglib.MergeFields(l.fields, fields),
	}
}

func withFields(event *zerolog.Event, fieldMaps ...loglib.Fields) *zerolog.Event {
	for _, m := range fieldMaps {
		for key, value := range m {
			switch v := value.(type) {
			case string:
				event = event.Str(key, v)
			case int:
				event = event.Int(key, v)
			case int64:
				event = event.Int64(key, v)
			case bool:
				event = event.Bool(key, v)
			case []byte:
				event = addBytesToLog(event, key, v)
			case time.Duration:
				event = event.Dur(key, v)
			case []string:
				event = event.Strs(key, v)
			case fmt.Stringer:
				event = event.Stringer(key, v)
			default:
				event = event.Any(key, v)
			}
		}
	}
	return event
}

func addBytesToLog(event *zerolog.Event, key string, value []byte) *zerolog.Event {
	if len(value) > logMaxBytes {
		return event.Bytes(key, value[:logMaxBytes])
	}
	return event.Bytes(key, value)
}
