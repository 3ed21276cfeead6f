package lib

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel defines the severity of log messages
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Logger provides structured logging for the application.
// Key/value pairs passed to the level methods become logrus fields.
type Logger struct {
	level  LogLevel
	logger *logrus.Logger
}

// NewLogger creates a new logger instance writing to stderr.
// Stdout is reserved for anonymized output.
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a logger that writes to a specific writer
// Useful for testing with buffers
func NewLoggerWithWriter(level LogLevel, w io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   true,
	})
	l.SetLevel(toLogrusLevel(level))

	return &Logger{
		level:  level,
		logger: l,
	}
}

// DefaultLogger returns a logger with INFO level
var DefaultLogger = NewLogger(LogLevelInfo)

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...interface{}) {
	l.entry(fields...).Debug(message)
}

// Info logs an informational message
func (l *Logger) Info(message string, fields ...interface{}) {
	l.entry(fields...).Info(message)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...interface{}) {
	l.entry(fields...).Warn(message)
}

// Error logs an error message
func (l *Logger) Error(message string, fields ...interface{}) {
	l.entry(fields...).Error(message)
}

// entry converts alternating key/value arguments into logrus fields.
// A trailing key without a value is logged under "field".
func (l *Logger) entry(fields ...interface{}) *logrus.Entry {
	if len(fields) == 0 {
		return logrus.NewEntry(l.logger)
	}

	f := make(logrus.Fields, (len(fields)+1)/2)
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if i+1 >= len(fields) {
			f["field"] = key
			break
		}
		f[key] = fields[i+1]
	}
	return l.logger.WithFields(f)
}

// LogOperation logs the start and completion of an operation
func LogOperation(logger *Logger, operation string, fn func() error) error {
	logger.Info(fmt.Sprintf("Starting: %s", operation))
	start := time.Now()

	err := fn()

	duration := time.Since(start)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed: %s", operation), "duration", duration, "error", err)
		return err
	}

	logger.Info(fmt.Sprintf("Completed: %s", operation), "duration", duration)
	return nil
}

// LogRunStarted logs the start of an anonymization run
func LogRunStarted(logger *Logger, runID string, inputFile string) {
	logger.Info(
		"Run started",
		"run_id", runID,
		"input", sanitize(inputFile),
	)
}

// LogRunCompleted logs a finished anonymization run
func LogRunCompleted(logger *Logger, runID string, messages int, bytesRead int64, duration time.Duration) {
	logger.Info(
		"Run completed",
		"run_id", runID,
		"messages", messages,
		"bytes", bytesRead,
		"duration", duration,
	)
}

// LogRunFailed logs a failed anonymization run
func LogRunFailed(logger *Logger, runID string, messages int, err error) {
	logger.Error(
		"Run failed",
		"run_id", runID,
		"messages", messages,
		"error", err,
	)
}

// LogFieldAnonymized logs a rewritten field.
// Only the coordinate is logged, never the original or synthetic value.
func LogFieldAnonymized(logger *Logger, coordinate string) {
	logger.Debug(
		"Field anonymized",
		"coordinate", coordinate,
	)
}

// sanitize removes line breaks to prevent log spoofing
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	return strings.ReplaceAll(s, "\r", "")
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
	l.logger.SetLevel(toLogrusLevel(level))
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

// ParseLogLevel converts a string to LogLevel
func ParseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
