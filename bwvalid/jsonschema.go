package bwvalid

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// JSONSchemaValidator validates raw JSON against a compiled JSON Schema.
type JSONSchemaValidator struct {
	schema *jsonschema.Schema
}

// JSONSchema compiles schemaJSON. The id is used as the schema resource
// location and shows up in compile errors; it defaults to "schema.json".
func JSONSchema(id, schemaJSON string) (*JSONSchemaValidator, error) {
	if id == "" {
		id = "schema.json"
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return nil, errors.Wrapf(err, "parse schema %q", id)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	if err := compiler.AddResource(id, doc); err != nil {
		return nil, errors.Wrapf(err, "add schema %q", id)
	}
	schema, err := compiler.Compile(id)
	if err != nil {
		return nil, errors.Wrapf(err, "compile schema %q", id)
	}
	return &JSONSchemaValidator{schema: schema}, nil
}

// MustJSONSchema is like JSONSchema but panics on error. Use it for schemas
// declared at package level.
func MustJSONSchema(id, schemaJSON string) *JSONSchemaValidator {
	v, err := JSONSchema(id, schemaJSON)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate decodes raw and checks it against the schema. Numbers in the
// returned value are json.Number.
func (v *JSONSchemaValidator) Validate(_ context.Context, raw json.RawMessage) (any, Issues, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, Issues{{Code: CodeSyntax, Message: MsgSyntax}}, nil
	}

	err = v.schema.Validate(inst)
	if err == nil {
		return inst, nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, nil, errors.Wrap(err, "validate against schema")
	}

	var issues Issues
	collectSchemaIssues(verr, &issues)
	return inst, issues, nil
}

// collectSchemaIssues flattens the leaves of the error tree in order.
func collectSchemaIssues(verr *jsonschema.ValidationError, issues *Issues) {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			collectSchemaIssues(cause, issues)
		}
		return
	}

	location := strings.Join(verr.InstanceLocation, ".")
	if req, ok := verr.ErrorKind.(*kind.Required); ok {
		for _, prop := range req.Missing {
			issues.Add(joinPath(location, prop), "required", "is required")
		}
		return
	}

	code := "schema"
	if kw := verr.ErrorKind.KeywordPath(); len(kw) > 0 {
		code = kw[len(kw)-1]
	}
	issues.Add(location, code, verr.ErrorKind.LocalizedString(printer))
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
