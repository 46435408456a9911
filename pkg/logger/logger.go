// Package logger provides structured logging for the kaizen agent.
//
// Records are written by log/slog as text or JSON. Every long-lived
// component receives a Logger at construction time and tags its records
// with "component".
//
// Example usage:
//
//	log := logger.New(logger.Config{
//	    Level:  "info",
//	    Output: "~/.config/kaizen/kaizen.log",
//	    Format: "text",
//	})
//	log.Info("file moved", "path", src, "category", "Images")
//	log.With("component", "mover").Warn("move failed", "error", err)
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger provides structured logging with levels and fields.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an informational message with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})

	// With returns a new logger with additional context fields.
	With(keysAndValues ...interface{}) Logger
}

// Config contains logger configuration.
type Config struct {
	// Minimum level: debug, info, warn or error (default: info)
	Level string

	// Destination: stdout, stderr or a file path; "~" is expanded and
	// missing parent directories are created (default: stderr)
	Output string

	// Record format: text or json (default: text)
	Format string

	// Replaces the process stream when Output is stdout or stderr, so a
	// terminal in raw mode can translate line endings
	Console io.Writer
}

type logger struct {
	slogger *slog.Logger
}

// New creates a logger for cfg.
//
// A log file that cannot be opened falls back to stderr; logging never
// keeps the agent from starting.
func New(cfg Config) Logger {
	w, err := cfg.writer()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "kaizen: %v; logging to stderr\n", err)
		w = os.Stderr
	}

	return NewWithWriter(cfg, w)
}

// NewWithWriter creates a logger that writes to w, ignoring Output and
// Console. Tests use it to capture records.
func NewWithWriter(cfg Config, w io.Writer) Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &logger{slogger: slog.New(handler)}
}

func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.slogger.Debug(msg, keysAndValues...)
}

func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.slogger.Info(msg, keysAndValues...)
}

func (l *logger) Warn(msg string, keysAndValues ...interface{}) {
	l.slogger.Warn(msg, keysAndValues...)
}

func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.slogger.Error(msg, keysAndValues...)
}

func (l *logger) With(keysAndValues ...interface{}) Logger {
	return &logger{slogger: l.slogger.With(keysAndValues...)}
}

// parseLevel maps a level name to slog.Level; unknown names are info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// writer resolves the record destination.
func (c Config) writer() (io.Writer, error) {
	switch strings.ToLower(strings.TrimSpace(c.Output)) {
	case "stdout":
		if c.Console != nil {
			return c.Console, nil
		}
		return os.Stdout, nil
	case "stderr", "":
		if c.Console != nil {
			return c.Console, nil
		}
		return os.Stderr, nil
	}

	path := expandHome(strings.TrimSpace(c.Output))
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// #nosec G304: output path comes from trusted config
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Default returns an info-level text logger on stderr.
func Default() Logger {
	return New(Config{})
}

// Noop returns a logger that discards every record.
func Noop() Logger {
	return &logger{slogger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
