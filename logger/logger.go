// Package logger provides structured logging for the persistence layer.
//
// It wraps Go's standard log/slog with a process-global logger and
// package-level convenience functions. All exported functions use
// DefaultLogger, which writes text to stderr and can be reconfigured
// with SetLevel, SetVerbose, or SetOutput.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// DefaultLogger is the global structured logger instance.
// It is safe for concurrent use and initialized at info level by default.
var DefaultLogger *slog.Logger

func init() {
	// DATAKIT_LOG_LEVEL overrides the initial level.
	level := slog.LevelInfo
	if envLevel := os.Getenv("DATAKIT_LOG_LEVEL"); envLevel != "" {
		if parsed, ok := ParseLevel(envLevel); ok {
			level = parsed
		}
	}
	DefaultLogger = newLogger(os.Stderr, level)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel converts a level name ("debug", "info", "warn", "error")
// to a slog.Level. The second return value reports whether the name was
// recognized.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// SetLevel changes the logging level for all subsequent log operations.
// This replaces the entire logger instance.
func SetLevel(level slog.Level) {
	DefaultLogger = newLogger(os.Stderr, level)
}

// SetVerbose enables debug-level logging when verbose is true, otherwise
// info-level. Convenience wrapper for command-line verbose flags.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// SetOutput redirects log output, keeping the given level. Intended for
// tests and host applications that capture logs.
func SetOutput(w io.Writer, level slog.Level) {
	DefaultLogger = newLogger(w, level)
}

// With returns a logger carrying the given attributes, for components
// that log repeatedly with the same context (e.g. a backend name).
func With(args ...any) *slog.Logger {
	return DefaultLogger.With(args...)
}

// Debug logs a debug-level message with structured key-value attributes.
func Debug(msg string, args ...any) {
	DefaultLogger.Debug(msg, args...)
}

// DebugContext logs a debug message with context and structured attributes.
func DebugContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.DebugContext(ctx, msg, args...)
}

// Info logs an informational message with structured key-value attributes.
func Info(msg string, args ...any) {
	DefaultLogger.Info(msg, args...)
}

// InfoContext logs an informational message with context and structured attributes.
func InfoContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.InfoContext(ctx, msg, args...)
}

// Warn logs a warning message. Use for recoverable errors or unexpected
// but non-critical situations.
func Warn(msg string, args ...any) {
	DefaultLogger.Warn(msg, args...)
}

// WarnContext logs a warning message with context and structured attributes.
func WarnContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.WarnContext(ctx, msg, args...)
}

// Error logs an error message. Use for errors that affect an operation
// but don't cause complete failure.
func Error(msg string, args ...any) {
	DefaultLogger.Error(msg, args...)
}

// ErrorContext logs an error message with context and structured attributes.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.ErrorContext(ctx, msg, args...)
}
