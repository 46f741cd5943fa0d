// Package log wraps slog.Logger with a component name attached to every
// record.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Standard component names.
const (
	ComponentApp    = "app"
	ComponentStore  = "store"
	ComponentDaemon = "daemon"
	ComponentHTTP   = "http"
	ComponentTUI    = "tui"
)

// Logger wraps slog.Logger with a component name.
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer
	Handler   slog.Handler
}

// DefaultConfig logs warnings and errors to stderr so command output on
// stdout stays clean.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelWarn,
		Component: ComponentApp,
		Output:    os.Stderr,
	}
}

// New creates a logger with the given configuration.
func New(cfg Config) *Logger {
	handler := cfg.Handler
	if handler == nil {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	}
	return &Logger{
		Logger:    slog.New(handler),
		component: cfg.Component,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(Config{Output: io.Discard})
}

// ParseLevel maps debug, info, warn and error (case-insensitive) to slog
// levels. An empty string yields fallback.
func ParseLevel(s string, fallback slog.Level) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return fallback, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return fallback, fmt.Errorf("unknown log level %q", s)
}

// With returns a logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

// WithComponent returns a logger tagged with a different component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger,
		component: component,
	}
}

func (l *Logger) args(args []any) []any {
	return append([]any{"component", l.component}, args...)
}

func (l *Logger) Info(msg string, args ...any) { l.Logger.Info(msg, l.args(args)...) }

func (l *Logger) Warn(msg string, args ...any) { l.Logger.Warn(msg, l.args(args)...) }

func (l *Logger) Error(msg string, args ...any) { l.Logger.Error(msg, l.args(args)...) }

func (l *Logger) Debug(msg string, args ...any) { l.Logger.Debug(msg, l.args(args)...) }

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.Logger.InfoContext(ctx, msg, l.args(args)...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.Logger.WarnContext(ctx, msg, l.args(args)...)
}
