package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger interface for structured logging
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Fatal(msg string, err error, fields ...interface{})
}

// SlogLogger implements Logger on top of log/slog. Fields are alternating
// key/value pairs.
type SlogLogger struct {
	logger *slog.Logger
	exit   func(int)
}

// New creates a logger writing to stderr with the given level and format
// ("text" or "json").
func New(level, format string) Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(w io.Writer, level, format string) Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &SlogLogger{logger: slog.New(handler), exit: os.Exit}
}

// NewSimpleLogger creates a text logger at info level
func NewSimpleLogger() Logger {
	return New("info", "text")
}

// Nop returns a logger that discards everything
func Nop() Logger {
	return NewWithWriter(io.Discard, "error", "text")
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Info logs an info message
func (l *SlogLogger) Info(msg string, fields ...interface{}) {
	l.logger.Info(msg, fields...)
}

// Error logs an error message
func (l *SlogLogger) Error(msg string, err error, fields ...interface{}) {
	l.logger.Error(msg, withError(err, fields)...)
}

// Warn logs a warning message
func (l *SlogLogger) Warn(msg string, fields ...interface{}) {
	l.logger.Warn(msg, fields...)
}

// Debug logs a debug message
func (l *SlogLogger) Debug(msg string, fields ...interface{}) {
	l.logger.Debug(msg, fields...)
}

// Fatal logs a fatal error and exits
func (l *SlogLogger) Fatal(msg string, err error, fields ...interface{}) {
	l.logger.Error(msg, withError(err, fields)...)
	l.exit(1)
}

func withError(err error, fields []interface{}) []interface{} {
	if err == nil {
		return fields
	}
	return append([]interface{}{"error", err.Error()}, fields...)
}
