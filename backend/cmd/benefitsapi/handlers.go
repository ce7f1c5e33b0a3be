package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/basewarphq/bwfn/backend/internal/pricing"
	"github.com/basewarphq/bwfn/bwlog"
	"github.com/basewarphq/bwfn/bwroute"
	"github.com/basewarphq/bwfn/bwvalid"
	"github.com/cockroachdb/errors"
)

type benefitStore interface {
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type fileStore interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type priceQueue interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

var benefitPathSchema = bwvalid.MustJSONSchema("benefit-path.json", `{
	"type": "object",
	"required": ["benefitId"],
	"properties": {
		"benefitId": {"type": "string", "pattern": "^[0-9]+$"}
	}
}`)

var priceChangeSchema = bwvalid.Struct[pricing.Change]()

// Handlers serves the benefits API.
type Handlers struct {
	env      Env
	benefits benefitStore
	files    fileStore
	prices   priceQueue
	now      func() time.Time
}

func NewHandlers(env Env, benefits benefitStore, files fileStore, prices priceQueue) *Handlers {
	return &Handlers{env: env, benefits: benefits, files: files, prices: prices, now: time.Now}
}

// userID is the principal set by the API Gateway authorizer.
func userID(req *bwroute.Request) string {
	id, _ := req.RequestContext.Authorizer["principalId"].(string)
	return id
}

func (h *Handlers) query(ctx context.Context, pk string) ([]map[string]types.AttributeValue, error) {
	out, err := h.benefits.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(h.env.BenefitsTableName),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", pk)
	}
	return out.Items, nil
}

func attrs(items []map[string]types.AttributeValue, name string) []string {
	vals := make([]string, 0, len(items))
	for _, item := range items {
		if v, ok := item[name].(*types.AttributeValueMemberS); ok {
			vals = append(vals, v.Value)
		}
	}
	return vals
}

// Me lists the benefits of the calling user.
func (h *Handlers) Me(ctx context.Context, req *bwroute.Request) (bwroute.Response, error) {
	uid := userID(req)
	if uid == "" {
		return bwroute.Response{}, bwroute.Forbidden()
	}
	bwlog.AddContext(ctx, uid)

	items, err := h.query(ctx, "USER#"+uid)
	if err != nil {
		return bwroute.Response{}, err
	}
	return bwroute.JSON(http.StatusOK, map[string]any{
		"userId":   uid,
		"benefits": attrs(items, "benefitId"),
	})
}

// Users lists the users holding a benefit.
func (h *Handlers) Users(ctx context.Context, req *bwroute.Request) (bwroute.Response, error) {
	id := req.PathParameters["benefitId"]
	bwlog.AddContext(ctx, "benefit "+id)

	items, err := h.query(ctx, "BENEFIT#"+id)
	if err != nil {
		return bwroute.Response{}, err
	}
	if len(items) == 0 {
		return bwroute.Response{}, bwroute.NotFound()
	}
	return bwroute.JSON(http.StatusOK, map[string]any{
		"benefitId": id,
		"users":     attrs(items, "userId"),
	})
}

type fileInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// File describes an object in the files bucket. The key may contain slashes.
func (h *Handlers) File(ctx context.Context, req *bwroute.Request) (bwroute.Response, error) {
	key := req.PathParameters["path"]
	if key == "" {
		return bwroute.Response{}, bwroute.BadRequest("Missing file path")
	}

	out, err := h.files.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(h.env.FilesBucketName),
		Key:    aws.String(key),
	})
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return bwroute.Response{}, bwroute.NotFound()
	}
	if err != nil {
		return bwroute.Response{}, errors.Wrapf(err, "head object %q", key)
	}

	return bwroute.JSON(http.StatusOK, fileInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	})
}

// ChangePrice enqueues a price migration for one subscription.
func (h *Handlers) ChangePrice(
	ctx context.Context, req *bwroute.Request, _ struct{}, change pricing.Change,
) (bwroute.Response, error) {
	if userID(req) == "" {
		return bwroute.Response{}, bwroute.Forbidden()
	}
	bwlog.AddContext(ctx, change.SubscriptionID)

	if change.EffectiveDate != "" {
		// the body schema has already checked the format
		day, _ := time.Parse(time.DateOnly, change.EffectiveDate)
		if day.Before(h.now().UTC().Truncate(24 * time.Hour)) {
			return bwroute.Response{}, bwroute.BadRequestf("effectiveDate %s is in the past", change.EffectiveDate)
		}
	}

	body, err := json.Marshal(change)
	if err != nil {
		return bwroute.Response{}, errors.Wrap(err, "encode price change")
	}
	out, err := h.prices.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(h.env.PriceQueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return bwroute.Response{}, errors.Wrap(err, "enqueue price change")
	}

	return bwroute.JSON(http.StatusAccepted, map[string]string{"messageId": aws.ToString(out.MessageId)})
}
