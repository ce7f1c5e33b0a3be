package bwvalid

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// Issue codes produced while reading a request body.
const (
	CodeMissingBody = "body.missing"
	CodeSyntax      = "body.syntax"
)

// Messages for the body issue codes.
const (
	MsgMissingBody = "Missing request body"
	MsgSyntax      = "Invalid request body - not json"
)

// Schema validates raw JSON. It returns the validated value and any issues
// found. A non-nil error means the schema itself could not run and is never
// a problem with the input.
type Schema interface {
	Validate(ctx context.Context, raw json.RawMessage) (any, Issues, error)
}

// SchemaFunc adapts a function to the Schema interface.
type SchemaFunc func(ctx context.Context, raw json.RawMessage) (any, Issues, error)

func (f SchemaFunc) Validate(ctx context.Context, raw json.RawMessage) (any, Issues, error) {
	return f(ctx, raw)
}

// PathParams encodes path bindings as a JSON object so they can be validated
// by any Schema. Values are always strings.
func PathParams(params map[string]string) json.RawMessage {
	if params == nil {
		params = map[string]string{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		// a map of strings always marshals
		panic(err)
	}
	return raw
}

// ParseBody validates a raw request body. An empty body and a body that is
// not JSON are reported as issues rather than errors.
func ParseBody(ctx context.Context, schema Schema, body string) (any, Issues, error) {
	if strings.TrimSpace(body) == "" {
		return nil, Issues{{Code: CodeMissingBody, Message: MsgMissingBody}}, nil
	}
	if !json.Valid([]byte(body)) {
		return nil, Issues{{Code: CodeSyntax, Message: MsgSyntax}}, nil
	}

	val, issues, err := schema.Validate(ctx, json.RawMessage(body))
	if err != nil {
		return nil, nil, errors.Wrap(err, "validate body")
	}
	return val, issues, nil
}
