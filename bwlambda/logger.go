package bwlambda

import (
	"context"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/basewarphq/bwfn/bwlog"
	"github.com/cockroachdb/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewLogger creates the production JSON logger at the configured level, named
// after the service.
func NewLogger(lc fx.Lifecycle, env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.DisableCaller = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	logger = logger.Named(env.serviceName())

	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		_ = logger.Sync()
		return nil
	}})
	return logger, nil
}

// withInvocationLogger stores logger for bwlog, tagged with the Lambda
// request ID when the runtime provides one.
func withInvocationLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With(zap.String("aws_request_id", lc.AwsRequestID))
	}
	return bwlog.WithLogger(ctx, logger)
}
