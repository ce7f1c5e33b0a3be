package bwlambda

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap/zapcore"
)

type testEnv struct {
	otelExp string
}

func (e testEnv) serviceName() string     { return "test-service" }
func (e testEnv) region() string          { return "eu-west-1" }
func (e testEnv) logLevel() zapcore.Level { return zapcore.InfoLevel }
func (e testEnv) otelExporter() string    { return e.otelExp }

func TestNewExporter(t *testing.T) {
	ctx := context.Background()

	t.Run("stdout exporter", func(t *testing.T) {
		exp, err := newExporter(ctx, "stdout")
		require.NoError(t, err)
		assert.NotNil(t, exp)
	})

	t.Run("empty defaults to stdout", func(t *testing.T) {
		exp, err := newExporter(ctx, "")
		require.NoError(t, err)
		assert.NotNil(t, exp)
	})

	t.Run("unsupported exporter returns error", func(t *testing.T) {
		_, err := newExporter(ctx, "invalid")
		require.EqualError(t, err, `unsupported BW_OTEL_EXPORTER: "invalid" (supported: stdout, xrayudp)`)
	})
}

func TestNewResource(t *testing.T) {
	res, err := newResource(context.Background(), "stdout", "my-service")
	require.NoError(t, err)

	found := false
	for _, attr := range res.Attributes() {
		if string(attr.Key) == "service.name" && attr.Value.AsString() == "my-service" {
			found = true
		}
	}
	assert.True(t, found, "expected service.name attribute in resource")
}

func TestNewTracerProvider_Stdout(t *testing.T) {
	var tp trace.TracerProvider
	app := fx.New(
		fx.NopLogger,
		fx.Supply(fx.Annotate(testEnv{otelExp: "stdout"}, fx.As(new(Environment)))),
		fx.Provide(NewTracerProvider),
		fx.Invoke(func(p trace.TracerProvider) { tp = p }),
	)

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	assert.IsType(t, &sdktrace.TracerProvider{}, tp)
	require.NoError(t, app.Stop(ctx))
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")

	var tp trace.TracerProvider
	app := fx.New(
		fx.NopLogger,
		fx.Supply(fx.Annotate(testEnv{otelExp: "invalid"}, fx.As(new(Environment)))),
		fx.Provide(NewTracerProvider),
		fx.Invoke(func(p trace.TracerProvider) { tp = p }),
	)
	require.NoError(t, app.Err())
	assert.IsType(t, noop.TracerProvider{}, tp)
}

func TestNewTracerProvider_InvalidExporter(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(fx.Annotate(testEnv{otelExp: "invalid"}, fx.As(new(Environment)))),
		fx.Provide(NewTracerProvider),
		fx.Invoke(func(trace.TracerProvider) {}),
	)
	require.Error(t, app.Err())
}

func TestNewPropagator(t *testing.T) {
	t.Run("stdout propagates trace context", func(t *testing.T) {
		fields := NewPropagator(testEnv{otelExp: "stdout"}).Fields()
		assert.Contains(t, fields, "traceparent")
		assert.NotContains(t, fields, "X-Amzn-Trace-Id")
	})

	t.Run("xrayudp adds the X-Ray header", func(t *testing.T) {
		prop := NewPropagator(testEnv{otelExp: "xrayudp"})
		assert.Contains(t, prop.Fields(), "X-Amzn-Trace-Id")
		assert.Implements(t, (*propagation.TextMapPropagator)(nil), prop)
	})
}
