package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging surface shared by commands, use cases and adapters.
// Key/value pairs follow slog conventions.
type Logger interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Debugf(ctx context.Context, format string, args ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Infof(ctx context.Context, format string, args ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Warnf(ctx context.Context, format string, args ...any)
	Error(ctx context.Context, msg string, kv ...any)
	Errorf(ctx context.Context, format string, args ...any)
	With(kv ...any) Logger
}

type contextKey struct{}

var loggerKey contextKey

// WithLogger stores a logger in context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or a human logger on stderr at info level.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok && l != nil {
		return l
	}
	return fallback
}

var fallback Logger = &slogWrapper{logger: slog.New(newHumanHandler(os.Stderr, nil))}

// New constructs a new Logger of given format (text|json|human) and level.
func New(format string, level slog.Leveler) (Logger, error) {
	return NewWithWriter(format, level, os.Stderr)
}

// NewWithWriter constructs a new Logger of given format, level, and output writer.
func NewWithWriter(format string, level slog.Leveler, w io.Writer) (Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "", "human":
		return &slogWrapper{logger: slog.New(newHumanHandler(w, opts))}, nil
	case "text":
		return &slogWrapper{logger: slog.New(slog.NewTextHandler(w, opts))}, nil
	case "json":
		return &slogWrapper{logger: slog.New(slog.NewJSONHandler(w, opts))}, nil
	default:
		return nil, errors.New("unsupported log format: " + format)
	}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return &slogWrapper{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel maps debug|info|warn|error (case-insensitive) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %s", s)
	}
}

// slogWrapper adapts slog.Logger to Logger.
type slogWrapper struct{ logger *slog.Logger }

func (l *slogWrapper) log(ctx context.Context, level slog.Level, msg string, kv []any) {
	l.logger.Log(ctx, level, msg, kv...)
}

func (l *slogWrapper) logf(ctx context.Context, level slog.Level, format string, args []any) {
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, fmt.Sprintf(format, args...))
}

func (l *slogWrapper) Debug(ctx context.Context, msg string, kv ...any) { l.log(ctx, slog.LevelDebug, msg, kv) }
func (l *slogWrapper) Info(ctx context.Context, msg string, kv ...any) { l.log(ctx, slog.LevelInfo, msg, kv) }
func (l *slogWrapper) Warn(ctx context.Context, msg string, kv ...any) { l.log(ctx, slog.LevelWarn, msg, kv) }
func (l *slogWrapper) Error(ctx context.Context, msg string, kv ...any) { l.log(ctx, slog.LevelError, msg, kv) }

func (l *slogWrapper) Debugf(ctx context.Context, format string, args ...any) {
	l.logf(ctx, slog.LevelDebug, format, args)
}
func (l *slogWrapper) Infof(ctx context.Context, format string, args ...any) {
	l.logf(ctx, slog.LevelInfo, format, args)
}
func (l *slogWrapper) Warnf(ctx context.Context, format string, args ...any) {
	l.logf(ctx, slog.LevelWarn, format, args)
}
func (l *slogWrapper) Errorf(ctx context.Context, format string, args ...any) {
	l.logf(ctx, slog.LevelError, format, args)
}

func (l *slogWrapper) With(kv ...any) Logger { return &slogWrapper{logger: l.logger.With(kv...)} }
