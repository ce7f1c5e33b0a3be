package bwlambda

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/basewarphq/bwfn/bwqueue"
	"github.com/basewarphq/bwfn/bwroute"
	"github.com/basewarphq/bwfn/bwtrace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// StartFunc hands the invocation handler to the Lambda runtime. It blocks for
// the life of the process.
type StartFunc func(ctx context.Context, handler any)

func startLambda(ctx context.Context, handler any) {
	lambda.StartWithOptions(handler, lambda.WithContext(ctx), lambda.WithEnableSIGTERM())
}

type options struct {
	fx      []fx.Option
	start   StartFunc
	partial bool
}

// Option configures an app.
type Option func(*options)

// WithFx adds fx options, typically providers for the function's services.
func WithFx(opts ...fx.Option) Option {
	return func(o *options) { o.fx = append(o.fx, opts...) }
}

// WithAWSClient registers an AWS SDK client for injection.
//
//	bwlambda.WithAWSClient(func(cfg aws.Config) *dynamodb.Client {
//	    return dynamodb.NewFromConfig(cfg)
//	})
func WithAWSClient[T any](factory func(aws.Config) T, opts ...ClientOption) Option {
	return WithFx(AWSClientProvider(factory, opts...))
}

// WithStart replaces the Lambda runtime, e.g. to drive the handler in tests.
func WithStart(start StartFunc) Option {
	return func(o *options) { o.start = start }
}

// WithPartialBatch makes a queue app report failed records individually
// instead of failing the whole batch. The event source mapping must have
// ReportBatchItemFailures enabled.
func WithPartialBatch() Option {
	return func(o *options) { o.partial = true }
}

func newOptions(opts []Option) *options {
	o := &options{start: startLambda}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func baseOptions[E Environment](o *options) fx.Option {
	return fx.Options(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(
			ParseEnv[E](),
			func(e E) Environment { return e },
			NewLogger,
			NewTracerProvider,
			NewPropagator,
			NewAWSConfig,
			NewHTTPClient,
		),
		fx.Options(o.fx...),
	)
}

// startOnRun starts the runtime once the app has started. The runtime gets
// its own background context since the start context expires.
func startOnRun(lc fx.Lifecycle, start StartFunc, handler any) {
	lc.Append(fx.Hook{OnStart: func(context.Context) error {
		go start(context.Background(), handler)
		return nil
	}})
}

// NewRouter creates the router for an HTTP function.
func NewRouter(logger *zap.Logger, tp trace.TracerProvider) *bwroute.Router {
	return bwroute.New(bwroute.WithLogger(logger), bwroute.WithTracerProvider(tp))
}

// NewHTTPApp builds an API Gateway proxy function. routes is an fx invoke
// function: it receives the *bwroute.Router plus any other dependencies and
// registers the routes.
//
//	bwlambda.NewHTTPApp[Env](func(r *bwroute.Router, h *Handlers) {
//	    r.GET("/benefits/me", h.Me)
//	}, bwlambda.WithFx(fx.Provide(NewHandlers))).Run()
func NewHTTPApp[E Environment](routes any, opts ...Option) *fx.App {
	o := newOptions(opts)
	return fx.New(
		baseOptions[E](o),
		fx.Provide(NewRouter),
		fx.Invoke(routes),
		fx.Invoke(func(lc fx.Lifecycle, r *bwroute.Router, logger *zap.Logger, tp trace.TracerProvider) {
			traced := bwtrace.WrapRouter(r.Route,
				bwtrace.WithName("router"),
				bwtrace.WithParams("event"),
				bwtrace.WithShortArgs(0),
				bwtrace.WithTracerProvider(tp))

			startOnRun(lc, o.start, func(
				ctx context.Context, ev events.APIGatewayProxyRequest,
			) (events.APIGatewayProxyResponse, error) {
				return traced(withInvocationLogger(ctx, logger), ev)
			})
		}),
	)
}

// NewQueueApp builds an SQS-triggered function. The services value S must be
// provided through WithFx; it is built once per cold start and passed to
// every invocation of h.
func NewQueueApp[E Environment, S any](h bwqueue.RecordHandler[S], opts ...Option) *fx.App {
	o := newOptions(opts)
	return fx.New(
		baseOptions[E](o),
		fx.Invoke(func(lc fx.Lifecycle, services S, logger *zap.Logger, tp trace.TracerProvider) {
			batch := bwqueue.New(services, h, bwqueue.WithTrace(bwtrace.WithTracerProvider(tp)))

			if o.partial {
				startOnRun(lc, o.start, func(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
					return batch.HandleReport(withInvocationLogger(ctx, logger), ev)
				})
				return
			}
			startOnRun(lc, o.start, func(ctx context.Context, ev events.SQSEvent) error {
				return batch.Handle(withInvocationLogger(ctx, logger), ev)
			})
		}),
	)
}
