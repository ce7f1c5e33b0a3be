package bwroute

import (
	"context"

	"github.com/basewarphq/bwfn/bwvalid"
	"github.com/cockroachdb/errors"
)

// WithPathParser validates the request's path parameters with schema and
// passes the typed result to next.
func WithPathParser[P any](schema bwvalid.Schema, next func(context.Context, *Request, P) (Response, error)) Handler {
	return func(ctx context.Context, req *Request) (Response, error) {
		val, issues, err := schema.Validate(ctx, bwvalid.PathParams(req.PathParameters))
		if err != nil {
			return Response{}, errors.Wrap(err, "parse path parameters")
		}
		if len(issues) > 0 {
			return Response{}, Invalid(issues.In("path"))
		}

		path, err := as[P](val)
		if err != nil {
			return Response{}, err
		}
		req.PathValue = val
		return next(ctx, req, path)
	}
}

// WithBodyParser validates the JSON body with schema and passes the typed
// result to next. A missing or non-JSON body gets its own 400 message
// instead of an issue list.
func WithBodyParser[B any](schema bwvalid.Schema, next func(context.Context, *Request, B) (Response, error)) Handler {
	return func(ctx context.Context, req *Request) (Response, error) {
		raw, err := req.RawBody()
		if err != nil {
			return Response{}, err
		}
		val, issues, err := bwvalid.ParseBody(ctx, schema, raw)
		if err != nil {
			return Response{}, err
		}
		if msg, ok := bodyReadFailure(issues); ok {
			return Response{}, BadRequest(msg)
		}
		if len(issues) > 0 {
			return Response{}, Invalid(issues.In("body"))
		}

		body, err := as[B](val)
		if err != nil {
			return Response{}, err
		}
		req.BodyValue = val
		return next(ctx, req, body)
	}
}

// WithParsers validates both the body and the path parameters before next
// runs. The body is checked first.
func WithParsers[P, B any](
	pathSchema, bodySchema bwvalid.Schema,
	next func(context.Context, *Request, P, B) (Response, error),
) Handler {
	return WithBodyParser(bodySchema, func(ctx context.Context, req *Request, body B) (Response, error) {
		return WithPathParser(pathSchema, func(ctx context.Context, req *Request, path P) (Response, error) {
			return next(ctx, req, path, body)
		})(ctx, req)
	})
}

func bodyReadFailure(issues bwvalid.Issues) (string, bool) {
	if len(issues) != 1 {
		return "", false
	}
	switch issues[0].Code {
	case bwvalid.CodeMissingBody, bwvalid.CodeSyntax:
		return issues[0].Message, true
	}
	return "", false
}
