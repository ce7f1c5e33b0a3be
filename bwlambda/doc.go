// Package bwlambda wires the pieces a Lambda function needs around a
// [bwroute.Router] or a [bwqueue.Batch]: environment parsing, structured
// logging, OpenTelemetry tracing, AWS SDK clients and graceful shutdown.
//
// # Overview
//
// An HTTP function behind an API Gateway proxy integration:
//
//	bwlambda.NewHTTPApp[Env](func(r *bwroute.Router, h *Handlers) {
//	    r.GET("/benefits/me", h.Me)
//	    r.GET("/benefits/{benefitId}/users", h.Users,
//	        bwroute.WithPathSchema(bwvalid.Struct[BenefitPath]()))
//	},
//	    bwlambda.WithAWSClient(func(cfg aws.Config) *dynamodb.Client {
//	        return dynamodb.NewFromConfig(cfg)
//	    }),
//	    bwlambda.WithFx(fx.Provide(NewHandlers)),
//	).Run()
//
// An SQS-triggered function:
//
//	bwlambda.NewQueueApp[Env](migratePrice,
//	    bwlambda.WithFx(fx.Provide(NewServices)),
//	).Run()
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    bwlambda.BaseEnvironment
//	    PricesTableName string `env:"PRICES_TABLE_NAME,required"`
//	}
//
// BaseEnvironment provides the following environment variables:
//
//	| Variable          | Required | Default | Description                                      |
//	|-------------------|----------|---------|--------------------------------------------------|
//	| BW_SERVICE_NAME   | Yes      | -       | Service name for logging and tracing             |
//	| AWS_REGION        | No       | -       | AWS region (set automatically by Lambda runtime) |
//	| BW_LOG_LEVEL      | No       | info    | Log level (debug, info, warn, error)             |
//	| BW_OTEL_EXPORTER  | No       | stdout  | Trace exporter: "stdout" or "xrayudp"            |
//
// Set OTEL_SDK_DISABLED=true to turn tracing off entirely.
//
// # Logging
//
// Every invocation context carries the service logger, tagged with the Lambda
// request ID, so handlers log through [bwlog.Log]. Each HTTP request and each
// queue record gets its own [bwlog] scope.
//
// # Tracing
//
// The tracer provider and propagator are injected explicitly (no globals).
// Router, record handler, AWS SDK calls and [NewHTTPClient] requests all
// become spans of the invocation trace.
//
// # Dependency Injection
//
// bwlambda uses [go.uber.org/fx]. The environment is available as both the
// concrete type and [Environment]; *zap.Logger, trace.TracerProvider,
// propagation.TextMapPropagator, aws.Config and *http.Client are provided.
// Add your own providers with [WithFx].
package bwlambda
