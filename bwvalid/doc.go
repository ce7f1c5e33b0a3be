// Package bwvalid adapts structural validators to the request dispatch layer.
//
// A [Schema] turns raw JSON (a request body, or path parameters encoded with
// [PathParams]) into a validated value plus an ordered list of field-level
// [Issues]. Two implementations are provided:
//
//   - [Struct] decodes into a Go type and checks go-playground/validator tags.
//   - [JSONSchema] validates against a compiled JSON Schema document.
//
// Issues are accumulated rather than short-circuited so that a caller sees
// every problem in one round trip.
package bwvalid
