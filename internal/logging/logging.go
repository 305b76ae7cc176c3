// Package logging configures the application-wide structured loggers.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Add trace and fatal level names.
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// handlerOptions returns slog handler options with custom level names.
func handlerOptions(level slog.Leveler) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				level := a.Value.Any().(slog.Level)
				levelLabel, exists := levelNames[level]
				if !exists {
					levelLabel = level.String()
				}
				a.Value = slog.StringValue(levelLabel)
			}
			return a
		},
	}
}

// Init initializes the logging system with structured and human-readable
// loggers. JSON output goes to stdout, text output to stderr.
func Init() {
	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, handlerOptions(slog.LevelDebug)))
	humanReadableLogger = slog.New(slog.NewTextHandler(os.Stderr, handlerOptions(slog.LevelInfo)))

	slog.SetDefault(structuredLogger)
}

// SetLevel sets the minimum logging level for both loggers.
func SetLevel(level slog.Level) {
	structuredLogger = slog.New(slog.NewJSONHandler(os.Stdout, handlerOptions(level)))
	humanReadableLogger = slog.New(slog.NewTextHandler(os.Stderr, handlerOptions(level)))
	slog.SetDefault(structuredLogger)
}

// Structured returns the globally configured structured (JSON) logger.
// Returns nil if Init() has not been called.
func Structured() *slog.Logger {
	return structuredLogger
}

// HumanReadable returns the globally configured human-readable (Text) logger.
func HumanReadable() *slog.Logger {
	return humanReadableLogger
}

// ForService creates a new logger instance with the 'service' attribute added.
// It uses the global structured logger as the base. Falls back to the default
// slog logger when Init() has not been called, so callers always get a usable
// logger.
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		return slog.Default().With("service", serviceName)
	}
	return structuredLogger.With("service", serviceName)
}

// --- Convenience functions using the default logger ---

// Debug logs a debug message using the default slog logger.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message using the default slog logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message using the default slog logger.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message using the default slog logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// Fatal logs a fatal message using the custom Fatal level and then exits.
func Fatal(msg string, args ...any) {
	slog.Log(context.TODO(), LevelFatal, msg, args...)
	os.Exit(1)
}

// Trace logs a trace message using the custom Trace level.
func Trace(msg string, args ...any) {
	slog.Log(context.TODO(), LevelTrace, msg, args...)
}

// NewFileLogger creates a new slog.Logger instance configured to write JSON
// logs to the specified file path using lumberjack for rotation. It includes
// a 'service' attribute in all logs. It returns the logger, a function to
// close the underlying log writer, and an error if setup fails.
func NewFileLogger(filePath, serviceName string, level slog.Leveler) (*slog.Logger, func() error, error) {
	// lumberjack doesn't create directories
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	logWriter := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   false,
	}

	fileHandler := slog.NewJSONHandler(logWriter, handlerOptions(level))
	logger := slog.New(fileHandler).With("service", serviceName)

	closeFunc := func() error {
		return logWriter.Close()
	}

	return logger, closeFunc, nil
}
