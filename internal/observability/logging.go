// Package observability carries structured logging context through a page load.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/fragmentloader/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	PageLoadID string
	Component  string
	Target     string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithPageLoadID tags every log line of one InitPage call.
func WithPageLoadID(ctx context.Context, id string) context.Context {
	lc := extractLogContext(ctx)
	lc.PageLoadID = id
	return context.WithValue(ctx, logContextKey, lc)
}

// WithComponent adds the component being loaded and the element it targets.
func WithComponent(ctx context.Context, component, target string) context.Context {
	lc := extractLogContext(ctx)
	lc.Component = component
	lc.Target = target
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.PageLoadID != "" {
		attrs = append(attrs, logfields.PageLoadID(lc.PageLoadID))
	}
	if lc.Component != "" {
		attrs = append(attrs, logfields.Component(lc.Component))
	}
	if lc.Target != "" {
		attrs = append(attrs, logfields.Target(lc.Target))
	}
	return attrs
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, slog.LevelInfo, msg, attrs)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, slog.LevelWarn, msg, attrs)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, slog.LevelError, msg, attrs)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, slog.LevelDebug, msg, attrs)
}

func logAttrs(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	all := append(getLogAttrs(ctx), attrs...)
	slog.LogAttrs(ctx, level, msg, all...)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}
