package bwlambda

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const httpClientTimeout = 10 * time.Second

// NewHTTPClient returns a client for calls to third-party APIs. Each request
// is a child span of the invocation and carries the trace headers.
func NewHTTPClient(tp trace.TracerProvider, prop propagation.TextMapPropagator) *http.Client {
	return &http.Client{
		Timeout: httpClientTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithPropagators(prop),
		),
	}
}
