// Package pricing holds the price migration message shared by the API that
// enqueues it and the function that applies it.
package pricing

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Change moves one subscription to a new price.
type Change struct {
	SubscriptionID string  `json:"subscriptionId" validate:"required"`
	Price          float64 `json:"price" validate:"required,gt=0"`
	Currency       string  `json:"currency,omitempty" validate:"omitempty,oneof=GBP USD EUR AUD"`
	EffectiveDate  string  `json:"effectiveDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// DefaultCurrency is used when a change names none.
const DefaultCurrency = "GBP"

// CurrencyOrDefault returns the currency of c, or DefaultCurrency.
func (c Change) CurrencyOrDefault() string {
	if c.Currency == "" {
		return DefaultCurrency
	}
	return c.Currency
}

// Key is the table key of the migrated price. A redelivered change writes
// the same item again.
func (c Change) Key() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: "SUB#" + c.SubscriptionID},
		"sk": &types.AttributeValueMemberS{Value: "PRICE#" + c.EffectiveDate},
	}
}

// Item is the full table item for c.
func (c Change) Item() map[string]types.AttributeValue {
	item := c.Key()
	item["price"] = &types.AttributeValueMemberN{Value: strconv.FormatFloat(c.Price, 'f', -1, 64)}
	item["currency"] = &types.AttributeValueMemberS{Value: c.CurrencyOrDefault()}
	return item
}
