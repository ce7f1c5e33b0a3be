// Command pricemigration applies queued price changes to the prices table.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/basewarphq/bwfn/backend/internal/pricing"
	"github.com/basewarphq/bwfn/bwlambda"
	"github.com/basewarphq/bwfn/bwlog"
	"github.com/basewarphq/bwfn/bwqueue"
	"github.com/cockroachdb/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Env is the function configuration.
type Env struct {
	bwlambda.BaseEnvironment
	PricesTableName string `env:"PRICES_TABLE_NAME,required"`
	NotifyURL       string `env:"PRICE_NOTIFY_URL"`
}

type priceWriter interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Services is built once per cold start and shared by every record.
type Services struct {
	Env    Env
	Prices priceWriter
	HTTP   *http.Client
}

func NewServices(env Env, prices *dynamodb.Client, client *http.Client) *Services {
	return &Services{Env: env, Prices: prices, HTTP: client}
}

func main() {
	bwlambda.NewQueueApp[Env, *Services](migratePrice,
		bwlambda.WithAWSClient(func(cfg aws.Config) *dynamodb.Client {
			return dynamodb.NewFromConfig(cfg)
		}),
		bwlambda.WithFx(fx.Provide(NewServices)),
	).Run()
}

// migratePrice writes the new price. Redelivery writes the same item again,
// and the notification is sent again.
func migratePrice(ctx context.Context, msg events.SQSMessage, s *Services) error {
	change, err := bwqueue.DecodeJSON[pricing.Change](ctx, msg, nil)
	if err != nil {
		return err
	}
	bwlog.AddContext(ctx, change.SubscriptionID)

	if _, err := s.Prices.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.Env.PricesTableName),
		Item:      change.Item(),
	}); err != nil {
		return errors.Wrap(err, "put price")
	}
	bwlog.Log(ctx).Info("price migrated",
		zap.Float64("price", change.Price), zap.String("currency", change.CurrencyOrDefault()))

	if s.Env.NotifyURL == "" {
		return nil
	}
	return notify(ctx, s.HTTP, s.Env.NotifyURL, change)
}

func notify(ctx context.Context, client *http.Client, url string, change pricing.Change) error {
	body, err := json.Marshal(change)
	if err != nil {
		return errors.Wrap(err, "encode notification")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build notification request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send notification")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Newf("notification rejected with status %d", resp.StatusCode)
	}
	return nil
}
