package bwlambda

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// InRegion wraps an AWS client configured for a specific fixed region.
// Use this when a function must reach a resource outside AWS_REGION, for
// example a queue owned by another deployment.
//
// Registration:
//
//	bwlambda.WithAWSClient(func(cfg aws.Config) *bwlambda.InRegion[sqs.Client] {
//	    return bwlambda.NewInRegion(sqs.NewFromConfig(cfg), "us-east-1")
//	}, bwlambda.ForRegion("us-east-1"))
//
// Injection:
//
//	func NewServices(sqs *bwlambda.InRegion[sqs.Client]) *Services
type InRegion[T any] struct {
	Client *T
	Region string
}

// NewInRegion creates an InRegion wrapper for an AWS client configured for a fixed region.
func NewInRegion[T any](client *T, region string) *InRegion[T] {
	return &InRegion[T]{Client: client, Region: region}
}

type clientOptions struct {
	region string
}

// ClientOption configures AWS client registration.
type ClientOption func(*clientOptions)

// ForRegion configures the client to use a specific fixed region instead of
// AWS_REGION.
func ForRegion(region string) ClientOption {
	return func(o *clientOptions) {
		o.region = region
	}
}

const awsConfigTimeout = 10 * time.Second

// NewAWSConfig loads the default AWS SDK v2 configuration and instruments it
// so that every SDK call is a child span of the invocation.
func NewAWSConfig(tp trace.TracerProvider, prop propagation.TextMapPropagator) (aws.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), awsConfigTimeout)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return cfg, errors.Wrap(err, "load aws config")
	}
	otelaws.AppendMiddlewares(&cfg.APIOptions,
		otelaws.WithTracerProvider(tp),
		otelaws.WithTextMapPropagator(prop),
	)
	return cfg, nil
}

// AWSClientProvider creates an fx.Option that provides an AWS client for injection.
// The factory receives an aws.Config with the region already configured.
//
//	bwlambda.AWSClientProvider(func(cfg aws.Config) *dynamodb.Client {
//	    return dynamodb.NewFromConfig(cfg)
//	})
func AWSClientProvider[T any](factory func(aws.Config) T, opts ...ClientOption) fx.Option {
	var options clientOptions
	for _, opt := range opts {
		opt(&options)
	}

	return fx.Provide(func(cfg aws.Config, env Environment) T {
		awsCfg := cfg.Copy()
		switch {
		case options.region != "":
			awsCfg.Region = options.region
		case env.region() != "":
			awsCfg.Region = env.region()
		}
		return factory(awsCfg)
	})
}
