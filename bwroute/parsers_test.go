package bwroute_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/basewarphq/bwfn/bwroute"
	"github.com/basewarphq/bwfn/bwvalid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithParsers(t *testing.T) {
	t.Parallel()
	var gotPath benefitPath
	var gotBody priceBody
	r := bwroute.New()
	r.POST("/benefits/{benefitId}", bwroute.WithParsers(
		bwvalid.Struct[benefitPath](), bwvalid.Struct[priceBody](),
		func(_ context.Context, _ *bwroute.Request, path benefitPath, body priceBody) (bwroute.Response, error) {
			gotPath, gotBody = path, body
			return bwroute.Text(http.StatusCreated, "created"), nil
		}))

	resp, err := r.Route(context.Background(), request("POST", "/benefits/12", `{"price": 3}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, benefitPath{BenefitID: "12"}, gotPath)
	assert.Equal(t, priceBody{Price: 3}, gotBody)
}

func TestWithParsers_BodyCheckedFirst(t *testing.T) {
	t.Parallel()
	r := bwroute.New()
	r.POST("/benefits/{benefitId}", bwroute.WithParsers(
		bwvalid.Struct[benefitPath](), bwvalid.Struct[priceBody](),
		func(context.Context, *bwroute.Request, benefitPath, priceBody) (bwroute.Response, error) {
			t.Fatal("handler must not run")
			return bwroute.Response{}, nil
		}))

	resp, err := r.Route(context.Background(), request("POST", "/benefits/abc", `{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid request","details":[
		{"in":"body","path":"price","code":"required","message":"is required"}
	]}`, resp.Body)

	resp, err = r.Route(context.Background(), request("POST", "/benefits/abc", `{"price":1}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid request","details":[
		{"in":"path","path":"benefitId","code":"numeric","message":"must be numeric"}
	]}`, resp.Body)
}

func TestWithBodyParser_NotJSON(t *testing.T) {
	t.Parallel()
	h := bwroute.WithBodyParser(bwvalid.Struct[priceBody](),
		func(context.Context, *bwroute.Request, priceBody) (bwroute.Response, error) {
			return bwroute.OK("ok"), nil
		})

	_, err := h(context.Background(), &bwroute.Request{APIGatewayProxyRequest: request("POST", "/", "{")})
	require.Error(t, err)
	assert.Equal(t, bwroute.KindBadRequest, bwroute.KindOf(err))
	assert.Equal(t, "Invalid request body - not json", err.Error())
}

func TestWithPathParser_JSONSchema(t *testing.T) {
	t.Parallel()
	schema := bwvalid.MustJSONSchema("benefit-path.json", `{
		"type": "object",
		"required": ["benefitId"],
		"properties": {"benefitId": {"type": "string", "pattern": "^[0-9]+$"}}
	}`)
	h := bwroute.WithPathParser(schema, func(_ context.Context, _ *bwroute.Request, path any) (bwroute.Response, error) {
		return bwroute.JSON(http.StatusOK, path)
	})

	req := &bwroute.Request{APIGatewayProxyRequest: request("GET", "/", "")}
	req.PathParameters = map[string]string{"benefitId": "77"}
	resp, err := h(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"benefitId":"77"}`, resp.Body)

	req.PathParameters = map[string]string{"benefitId": "x"}
	_, err = h(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, bwroute.KindInvalid, bwroute.KindOf(err))
}
