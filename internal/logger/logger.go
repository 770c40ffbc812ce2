// Package logger provides a small structured logging interface over slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger defines the logging interface.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
	With(fields ...Field) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// Field constructors.
func String(key, val string) Field     { return Field{Key: key, Value: val} }
func Int(key string, val int) Field     { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field   { return Field{Key: key, Value: val} }
func Error(err error) Field             { return Field{Key: "error", Value: err} }

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Named(name string) Logger {
	return &slogLogger{logger: l.logger.WithGroup(name)}
}

func (l *slogLogger) With(fields ...Field) Logger {
	args := make([]any, 0, len(fields))
	for _, f := range convertFields(fields) {
		args = append(args, f)
	}
	return &slogLogger{logger: l.logger.With(args...)}
}

func (l *slogLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.logger.LogAttrs(ctx, slog.LevelInfo, msg, convertFields(fields)...)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.logger.LogAttrs(ctx, slog.LevelWarn, msg, convertFields(fields)...)
}

func (l *slogLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.logger.LogAttrs(ctx, slog.LevelError, msg, convertFields(fields)...)
}

func (l *slogLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.logger.LogAttrs(ctx, slog.LevelDebug, msg, convertFields(fields)...)
}

func convertFields(fields []Field) []slog.Attr {
	attrs := make([]slog.Attr, len(fields))
	for i, f := range fields {
		attrs[i] = slog.Any(f.Key, f.Value)
	}
	return attrs
}

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level slog.Level) Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &slogLogger{logger: slog.New(h)}
}

// NewStderr returns a logger on stderr; verbose enables debug output.
func NewStderr(verbose bool) Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return New(os.Stderr, level)
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return New(io.Discard, slog.LevelError+1)
}
