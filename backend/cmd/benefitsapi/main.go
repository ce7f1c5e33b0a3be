// Command benefitsapi serves the benefits HTTP API behind an API Gateway
// proxy integration.
package main

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/basewarphq/bwfn/bwlambda"
	"github.com/basewarphq/bwfn/bwroute"
	"go.uber.org/fx"
)

// Env is the function configuration.
type Env struct {
	bwlambda.BaseEnvironment
	BenefitsTableName string `env:"BENEFITS_TABLE_NAME,required"`
	FilesBucketName   string `env:"FILES_BUCKET_NAME,required"`
	PriceQueueURL     string `env:"PRICE_QUEUE_URL,required"`
}

func main() {
	bwlambda.NewHTTPApp[Env](registerRoutes,
		bwlambda.WithAWSClient(func(cfg aws.Config) *dynamodb.Client {
			return dynamodb.NewFromConfig(cfg)
		}),
		bwlambda.WithAWSClient(func(cfg aws.Config) *s3.Client {
			return s3.NewFromConfig(cfg)
		}),
		bwlambda.WithAWSClient(func(cfg aws.Config) *sqs.Client {
			return sqs.NewFromConfig(cfg)
		}),
		bwlambda.WithFx(fx.Provide(
			func(c *dynamodb.Client) benefitStore { return c },
			func(c *s3.Client) fileStore { return c },
			func(c *sqs.Client) priceQueue { return c },
			NewHandlers,
		)),
	).Run()
}

// registerRoutes declares the API. Routes are matched in this order.
func registerRoutes(r *bwroute.Router, h *Handlers) {
	r.GET("/benefits/me", h.Me)
	r.GET("/benefits/{benefitId}/users", h.Users, bwroute.WithPathSchema(benefitPathSchema))
	r.GET("/files/{path+}", h.File)
	r.POST("/prices", bwroute.Typed(h.ChangePrice), bwroute.WithBodySchema(priceChangeSchema))
}
