// Package logging provides the structured logger used across the portal
// service layer. Every log line is JSON and carries the trace ID of the
// request that produced it when one is present in the context.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	// TraceIDKey is the context key for the request trace ID.
	TraceIDKey contextKey = "trace_id"
	// UserIDKey is the context key for the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// RoleKey is the context key for the authenticated user role.
	RoleKey contextKey = "role"
)

// Logger wraps logrus with trace-aware helpers.
type Logger struct {
	base    *logrus.Logger
	service string
}

// Config configures a Logger.
type Config struct {
	Service string
	Level   string
	Output  io.Writer
}

// New creates a structured JSON logger for the named service.
func New(cfg Config) *Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	base.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	return &Logger{base: base, service: cfg.Service}
}

// NewDefault creates a logger with default settings for the named service.
func NewDefault(service string) *Logger {
	return New(Config{Service: service, Level: "info"})
}

// WithContext returns an entry enriched with the trace ID, user ID and role
// carried by ctx. Missing values are simply omitted.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{"service": l.service}
	if traceID := GetTraceID(ctx); traceID != "" {
		fields["trace_id"] = traceID
	}
	if userID := GetUserID(ctx); userID != "" {
		fields["user_id"] = userID
	}
	if role, ok := ctx.Value(RoleKey).(string); ok && role != "" {
		fields["role"] = role
	}
	return l.base.WithFields(fields)
}

// WithFields returns an entry with the given fields attached.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.base.WithField("service", l.service).WithFields(logrus.Fields(fields))
}

// WithError returns an entry with the error attached.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.base.WithField("service", l.service).WithError(err)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.entry(fields).Info(msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.entry(fields).Warn(msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.entry(fields).Error(msg)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.entry(fields).Debug(msg)
}

func (l *Logger) entry(fields []map[string]interface{}) *logrus.Entry {
	entry := l.base.WithField("service", l.service)
	for _, f := range fields {
		entry = entry.WithFields(logrus.Fields(f))
	}
	return entry
}

// LogRequest logs one handled HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}).Info("request handled")
}

// =============================================================================
// Trace ID helpers
// =============================================================================

// NewTraceID generates a new trace ID.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID returns a context carrying the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID returns the trace ID carried by ctx, or "".
func GetTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(TraceIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUserID returns a context carrying the given user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID returns the user ID carried by ctx, or "".
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}
