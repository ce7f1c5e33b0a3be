package bwvalid_test

import (
	"context"
	"testing"

	"github.com/basewarphq/bwfn/bwvalid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const priceSchema = `{
  "type": "object",
  "required": ["price"],
  "properties": {
    "price": {"type": "number", "exclusiveMinimum": 0},
    "currency": {"enum": ["GBP", "USD", "EUR"]}
  }
}`

func TestParseBody_Missing(t *testing.T) {
	t.Parallel()
	for _, body := range []string{"", "   "} {
		_, issues, err := bwvalid.ParseBody(context.Background(), bwvalid.Struct[priceBody](), body)
		require.NoError(t, err)
		assert.Equal(t, bwvalid.Issues{{Code: bwvalid.CodeMissingBody, Message: "Missing request body"}}, issues)
	}
}

func TestParseBody_NotJSON(t *testing.T) {
	t.Parallel()
	_, issues, err := bwvalid.ParseBody(context.Background(), bwvalid.Struct[priceBody](), "not json")
	require.NoError(t, err)
	assert.Equal(t, bwvalid.Issues{{Code: bwvalid.CodeSyntax, Message: "Invalid request body - not json"}}, issues)
}

func TestJSONSchema_Required(t *testing.T) {
	t.Parallel()
	schema := bwvalid.MustJSONSchema("price.json", priceSchema)

	_, issues, err := bwvalid.ParseBody(context.Background(), schema, "{}")
	require.NoError(t, err)
	assert.Equal(t, bwvalid.Issues{{Path: "price", Code: "required", Message: "is required"}}, issues)
}

func TestJSONSchema_Valid(t *testing.T) {
	t.Parallel()
	schema := bwvalid.MustJSONSchema("price.json", priceSchema)

	val, issues, err := schema.Validate(context.Background(), []byte(`{"price": 3, "currency": "USD"}`))
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.IsType(t, map[string]any{}, val)
}

func TestJSONSchema_NestedIssues(t *testing.T) {
	t.Parallel()
	schema := bwvalid.MustJSONSchema("price.json", priceSchema)

	_, issues, err := schema.Validate(context.Background(), []byte(`{"price": -1, "currency": "JPY"}`))
	require.NoError(t, err)
	require.Len(t, issues, 2)

	paths := []string{issues[0].Path, issues[1].Path}
	assert.ElementsMatch(t, []string{"price", "currency"}, paths)
	for _, iss := range issues {
		assert.NotEmpty(t, iss.Message)
	}
}

func TestJSONSchema_CompileError(t *testing.T) {
	t.Parallel()
	_, err := bwvalid.JSONSchema("broken.json", `{"type": 12}`)
	require.Error(t, err)
}

func TestIssues_In(t *testing.T) {
	t.Parallel()
	issues := bwvalid.Issues{{Path: "price", Code: "required"}, {Code: bwvalid.CodeSyntax}}
	assert.Equal(t, bwvalid.Issues{
		{In: "body", Path: "price", Code: "required"},
		{In: "body", Code: bwvalid.CodeSyntax},
	}, issues.In("body"))
	assert.Empty(t, issues[0].In)
}

func TestIssues_Error(t *testing.T) {
	t.Parallel()
	var err error = bwvalid.Issues{{Path: "price", Message: "is required"}, {Message: "Missing request body"}}
	assert.Equal(t, "validation failed: price: is required; Missing request body", err.Error())
}
