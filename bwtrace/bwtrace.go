// Package bwtrace wraps functions so that every call logs its arguments on
// entry and its result or error on exit, inside an OpenTelemetry span.
//
// Parameter names are declared by the caller with [WithParams]; positions
// without a declared name are logged as arg0, arg1 and so on. The display
// name defaults to the Go function name, e.g. "handlers.migratePrice".
//
//	migrate := bwtrace.WrapErr2(h.migratePrice,
//	    bwtrace.WithParams("record", "services"),
//	    bwtrace.WithShortArgs(1),
//	)
//
// Tracing never swallows or transforms errors: the error returned by the
// wrapped function is returned unchanged.
package bwtrace

import (
	"context"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"github.com/basewarphq/bwfn/bwlog"
	"github.com/iancoleman/strcase"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/basewarphq/bwfn/bwtrace"

type options struct {
	name      string
	params    []string
	shortArgs int
	tp        trace.TracerProvider
}

// Option configures a traced function.
type Option func(*options)

// WithName overrides the display name used in log lines and span names.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithParams declares the parameter names, in call order, excluding the
// context.
func WithParams(names ...string) Option {
	return func(o *options) { o.params = names }
}

// WithShortArgs sets how many leading arguments are echoed on exit.
// The default is 1; 0 suppresses the echo.
func WithShortArgs(n int) Option {
	return func(o *options) { o.shortArgs = max(n, 0) }
}

// WithTracerProvider sets the provider used to start spans. Without it no
// spans are recorded.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

type tracer struct {
	name      string
	fields    []string
	shortArgs int
	tracer    trace.Tracer
}

func newTracer(fn any, arity int, opts []Option) *tracer {
	o := options{shortArgs: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = FuncName(fn)
	}
	if o.tp == nil {
		o.tp = noop.NewTracerProvider()
	}

	fields := make([]string, arity)
	for i := range fields {
		if i < len(o.params) && o.params[i] != "" {
			fields[i] = strcase.ToSnake(o.params[i])
		} else {
			fields[i] = "arg" + strconv.Itoa(i)
		}
	}

	return &tracer{
		name:      o.name,
		fields:    fields,
		shortArgs: min(o.shortArgs, arity),
		tracer:    o.tp.Tracer(instrumentationName),
	}
}

func (t *tracer) call(ctx context.Context, args []any, invoke func(context.Context) (any, error)) (any, error) {
	ctx, span := t.tracer.Start(ctx, t.name)
	defer span.End()

	bwlog.Log(ctx).Info("→ "+t.name, t.argFields(args, len(args))...)

	res, err := invoke(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		fields := append(t.argFields(args, t.shortArgs), zap.Error(err))
		bwlog.Log(ctx).Error("✗ "+t.name, fields...)
		return res, err
	}

	fields := append(t.argFields(args, t.shortArgs), zap.Any("result", res))
	bwlog.Log(ctx).Info("← "+t.name, fields...)
	return res, nil
}

func (t *tracer) argFields(args []any, n int) []zap.Field {
	fields := make([]zap.Field, 0, n+1)
	for i := range n {
		fields = append(fields, zap.Any(t.fields[i], args[i]))
	}
	return fields
}

// Wrap traces a function of one argument.
func Wrap[A, R any](fn func(context.Context, A) (R, error), opts ...Option) func(context.Context, A) (R, error) {
	t := newTracer(fn, 1, opts)
	return func(ctx context.Context, a A) (R, error) {
		res, err := t.call(ctx, []any{a}, func(ctx context.Context) (any, error) {
			return fn(ctx, a)
		})
		r, _ := res.(R)
		return r, err
	}
}

// Wrap2 traces a function of two arguments.
func Wrap2[A, B, R any](
	fn func(context.Context, A, B) (R, error), opts ...Option,
) func(context.Context, A, B) (R, error) {
	t := newTracer(fn, 2, opts)
	return func(ctx context.Context, a A, b B) (R, error) {
		res, err := t.call(ctx, []any{a, b}, func(ctx context.Context) (any, error) {
			return fn(ctx, a, b)
		})
		r, _ := res.(R)
		return r, err
	}
}

// WrapErr2 traces a function of two arguments that only returns an error.
func WrapErr2[A, B any](fn func(context.Context, A, B) error, opts ...Option) func(context.Context, A, B) error {
	t := newTracer(fn, 2, opts)
	return func(ctx context.Context, a A, b B) error {
		_, err := t.call(ctx, []any{a, b}, func(ctx context.Context) (any, error) {
			return nil, fn(ctx, a, b)
		})
		return err
	}
}

// WrapRouter is Wrap for the outermost HTTP entry point: every call starts
// a fresh logging scope before the traced function runs.
func WrapRouter[A, R any](fn func(context.Context, A) (R, error), opts ...Option) func(context.Context, A) (R, error) {
	traced := Wrap(fn, opts...)
	return func(ctx context.Context, a A) (R, error) {
		return traced(bwlog.NewScope(ctx), a)
	}
}

// FuncName returns a short display name for a function value, such as
// "handlers.migratePrice" for a method value or "TestWrap.func1" for a
// closure.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "unknown"
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return "unknown"
	}

	name := rf.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if _, rest, ok := strings.Cut(name, "."); ok {
		name = rest
	}
	name = strings.TrimSuffix(name, "-fm")
	return strings.NewReplacer("(*", "", ")", "").Replace(name)
}
