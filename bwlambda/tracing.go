package bwlambda

import (
	"context"
	"os"

	"github.com/aws-observability/aws-otel-go/exporters/xrayudp"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
)

const (
	exporterStdout  = "stdout"
	exporterXrayUDP = "xrayudp"
)

func newExporter(ctx context.Context, kind string) (sdktrace.SpanExporter, error) {
	switch kind {
	case exporterStdout, "":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case exporterXrayUDP:
		// Lambda's built-in X-Ray daemon, no collector layer.
		return xrayudp.NewSpanExporter(ctx)
	default:
		return nil, errors.Newf("unsupported BW_OTEL_EXPORTER: %q (supported: stdout, xrayudp)", kind)
	}
}

// newResource describes the function. Outside of X-Ray mode the Lambda
// detector is skipped so that local runs work without Lambda variables.
func newResource(ctx context.Context, kind, serviceName string) (*resource.Resource, error) {
	base := resource.NewSchemaless(attribute.String("service.name", serviceName))
	if kind != exporterXrayUDP {
		return base, nil
	}

	detected, err := lambda.NewResourceDetector().Detect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "detect lambda resource")
	}
	return resource.Merge(detected, base)
}

// NewTracerProvider creates the tracer provider for the function and flushes
// it when the app stops. OTEL_SDK_DISABLED=true yields a noop provider.
func NewTracerProvider(lc fx.Lifecycle, env Environment) (trace.TracerProvider, error) {
	if os.Getenv("OTEL_SDK_DISABLED") == "true" {
		return noop.NewTracerProvider(), nil
	}

	ctx := context.Background()
	exporter, err := newExporter(ctx, env.otelExporter())
	if err != nil {
		return nil, err
	}
	res, err := newResource(ctx, env.otelExporter(), env.serviceName())
	if err != nil {
		return nil, err
	}

	// Lambda may freeze the sandbox right after an invocation returns, so
	// spans are exported synchronously.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
		sdktrace.WithIDGenerator(xray.NewIDGenerator()),
	)
	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	return tp, nil
}

// NewPropagator returns the propagator for outbound calls. X-Ray mode adds
// the X-Ray header format.
func NewPropagator(env Environment) propagation.TextMapPropagator {
	if env.otelExporter() == exporterXrayUDP {
		return propagation.NewCompositeTextMapPropagator(
			xray.Propagator{}, propagation.TraceContext{}, propagation.Baggage{})
	}
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}
