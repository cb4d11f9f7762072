// Package logger provides structured JSON logging for event-enricher.
//
// The logger supports multiple log levels (DEBUG, INFO, WARN, ERROR) and outputs
// one JSON object per line via logrus. All entries carry an RFC3339 timestamp and
// can include arbitrary structured fields. Logs go to stderr by default so that
// stdout stays free for results.
//
// Example usage:
//
//	logger.Info("Fetched index page", logger.Fields{
//	    "url":    indexURL,
//	    "events": len(stubs),
//	})
//
//	logger.Error("Lookup failed", logger.Fields{
//	    "organizer": name,
//	}, err)
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger provides structured logging
type Logger struct {
	entry *logrus.Entry
}

var defaultLogger = New(LevelInfo, os.Stderr)

// New creates a new logger with the specified minimum log level and output destination.
// Messages below the minimum level will be discarded.
func New(level Level, output io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(output)
	l.SetLevel(toLogrus(level))
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})
	return &Logger{entry: logrus.NewEntry(l)}
}

// Default returns the package-level logger
func Default() *Logger {
	return defaultLogger
}

// SetDefault sets the default package-level logger used by the convenience functions
// (Debug, Info, Warn, Error). This allows centralizing logger configuration.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// ParseLevel converts a level name such as "debug" or "WARN" to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return "", fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", s)
	}
}

func toLogrus(level Level) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// With returns a logger that adds fields to every entry
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// Enabled reports whether messages at level would be written
func (l *Logger) Enabled(level Level) bool {
	return l.entry.Logger.IsLevelEnabled(toLogrus(level))
}

// log writes a structured log entry
func (l *Logger) log(level Level, message string, fields Fields, err error) {
	if !l.Enabled(level) {
		return
	}

	e := l.entry
	if len(fields) > 0 {
		e = e.WithFields(logrus.Fields(fields))
	}
	if err != nil {
		e = e.WithError(err)
	}
	e.Log(toLogrus(level), message)
}

// Debug logs a debug message with optional structured fields.
// Debug messages are typically used for detailed diagnostic information.
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

// Info logs an informational message with optional structured fields.
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a warning message with optional structured fields.
// Warning messages indicate potential issues that don't prevent operation.
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields, nil)
}

// Error logs an error message with optional structured fields and an error object.
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

// Package-level convenience functions using default logger

// Debug logs a debug message with the default logger
func Debug(message string, fields Fields) {
	defaultLogger.Debug(message, fields)
}

// Info logs an info message with the default logger
func Info(message string, fields Fields) {
	defaultLogger.Info(message, fields)
}

// Warn logs a warning message with the default logger
func Warn(message string, fields Fields) {
	defaultLogger.Warn(message, fields)
}

// Error logs an error message with the default logger
func Error(message string, fields Fields, err error) {
	defaultLogger.Error(message, fields, err)
}
