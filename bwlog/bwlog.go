// Package bwlog provides context-scoped logging for one logical unit of work.
//
// Every entry point (one HTTP request, one queue record) starts a fresh
// [Scope] with [NewScope]. Code running inside the unit of work can attach
// free-text tags with [AddContext], for example a subscription ID, and every
// later log line from the same unit of work carries them, including lines
// logged by callers higher up the stack. Tags never leak into the next unit
// of work because the next one starts with its own scope.
//
// Log lines are also correlated with the active OpenTelemetry span. AWS
// recommends including trace_id and span_id in log messages so that
// CloudWatch Logs Insights can filter by trace and X-Ray can show the lines
// in the trace timeline.
package bwlog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	ctxKeyScope ctxKey = iota
	ctxKeyLogger
)

// Scope holds the ordered tags of one unit of work. The tag list only grows
// until the scope is replaced.
type Scope struct {
	mu   sync.Mutex
	tags []string
}

func (s *Scope) add(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = append(s.tags, tag)
}

func (s *Scope) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tags)
}

// NewScope returns a context with a fresh, empty tag scope. Tags added to the
// parent scope are not visible through the returned context.
func NewScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKeyScope, &Scope{})
}

// EnsureScope returns ctx unchanged when it already carries a scope, and
// otherwise behaves like NewScope.
func EnsureScope(ctx context.Context) context.Context {
	if _, ok := ctx.Value(ctxKeyScope).(*Scope); ok {
		return ctx
	}
	return NewScope(ctx)
}

// AddContext appends a tag to the scope of ctx. It is a no-op when ctx
// carries no scope.
func AddContext(ctx context.Context, tag string) {
	if s, ok := ctx.Value(ctxKeyScope).(*Scope); ok {
		s.add(tag)
	}
}

// Tags returns a copy of the tags in the scope of ctx.
func Tags(ctx context.Context) []string {
	if s, ok := ctx.Value(ctxKeyScope).(*Scope); ok {
		return s.snapshot()
	}
	return nil
}

// WithLogger stores the base logger used by [Log] and friends.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logger)
}

// HasLogger reports whether ctx carries a logger stored with [WithLogger].
func HasLogger(ctx context.Context) bool {
	l, ok := ctx.Value(ctxKeyLogger).(*zap.Logger)
	return ok && l != nil
}

func baseLogger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKeyLogger).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// Log returns the base logger with the scope tags and trace fields attached.
func Log(ctx context.Context) *zap.Logger {
	fields := traceFields(ctx)
	if tags := Tags(ctx); len(tags) > 0 {
		fields = append(fields, zap.Strings("context", tags))
	}
	return baseLogger(ctx).With(fields...)
}

// Printf logs a single line made of the scope tags followed by the message,
// joined with spaces.
func Printf(ctx context.Context, format string, args ...any) {
	baseLogger(ctx).Info(line(ctx, fmt.Sprintf(format, args...)), traceFields(ctx)...)
}

// Errorf is like Printf at error level. The error is also recorded on the
// active span so that it appears in X-Ray.
func Errorf(ctx context.Context, format string, args ...any) {
	err := errors.Newf(format, args...)
	baseLogger(ctx).Error(line(ctx, err.Error()), traceFields(ctx)...)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.RecordError(err)
	}
}

func line(ctx context.Context, msg string) string {
	return strings.Join(append(Tags(ctx), msg), " ")
}

// traceFields extracts trace_id and span_id from the context for log correlation.
func traceFields(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	sc := span.SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
