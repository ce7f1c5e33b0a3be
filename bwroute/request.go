package bwroute

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cockroachdb/errors"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeJSON = "application/json"
)

// Response is the API Gateway proxy response returned by handlers.
type Response = events.APIGatewayProxyResponse

// Request is the API Gateway proxy event as seen by a handler. Its
// PathParameters hold the route bindings merged over the event's own.
// PathValue and BodyValue hold what the route's schemas produced, and are
// nil when the route declares no schema.
type Request struct {
	events.APIGatewayProxyRequest

	PathValue any
	BodyValue any
}

// RawBody returns the body, decoding it when API Gateway delivered it
// base64-encoded.
func (r *Request) RawBody() (string, error) {
	return rawBody(r.APIGatewayProxyRequest)
}

func rawBody(ev events.APIGatewayProxyRequest) (string, error) {
	if !ev.IsBase64Encoded {
		return ev.Body, nil
	}
	b, err := base64.StdEncoding.DecodeString(ev.Body)
	if err != nil {
		return "", BadRequest("Invalid request body - not base64")
	}
	return string(b), nil
}

// Handler serves one matched route.
type Handler func(ctx context.Context, req *Request) (Response, error)

// Text returns a plain-text response.
func Text(status int, body string) Response {
	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": contentTypeText},
		Body:       body,
	}
}

// JSON returns a response with v encoded as the body.
func JSON(status int, v any) (Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Response{}, errors.Wrapf(err, "encode %T response", v)
	}
	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": contentTypeJSON},
		Body:       string(body),
	}, nil
}

// OK returns a 200 plain-text response.
func OK(body string) Response {
	return Text(http.StatusOK, body)
}

// Typed adapts a handler that takes the validated path and body values
// directly. A nil value is passed as the zero value of its type.
func Typed[P, B any](fn func(ctx context.Context, req *Request, path P, body B) (Response, error)) Handler {
	return func(ctx context.Context, req *Request) (Response, error) {
		path, err := as[P](req.PathValue)
		if err != nil {
			return Response{}, err
		}
		body, err := as[B](req.BodyValue)
		if err != nil {
			return Response{}, err
		}
		return fn(ctx, req, path, body)
	}
}

func as[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.AssertionFailedf("schema produced %T, handler expects %T", v, zero)
	}
	return t, nil
}
