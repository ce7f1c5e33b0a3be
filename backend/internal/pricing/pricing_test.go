package pricing_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/basewarphq/bwfn/backend/internal/pricing"
	"github.com/basewarphq/bwfn/bwvalid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChange_Validation(t *testing.T) {
	t.Parallel()
	schema := bwvalid.Struct[pricing.Change]()

	_, issues, err := schema.Parse(context.Background(),
		json.RawMessage(`{"subscriptionId":"A-S1","price":-1,"currency":"JPY","effectiveDate":"01/02/2026"}`))
	require.NoError(t, err)

	codes := map[string]string{}
	for _, iss := range issues {
		codes[iss.Path] = iss.Code
	}
	assert.Equal(t, map[string]string{
		"price":         "gt",
		"currency":      "oneof",
		"effectiveDate": "datetime",
	}, codes)
}

func TestChange_Item(t *testing.T) {
	t.Parallel()
	item := pricing.Change{SubscriptionID: "A-S1", Price: 12.5, EffectiveDate: "2026-11-01"}.Item()

	assert.Equal(t, &types.AttributeValueMemberS{Value: "SUB#A-S1"}, item["pk"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "PRICE#2026-11-01"}, item["sk"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "12.5"}, item["price"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "GBP"}, item["currency"])
}
