package bwroute

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/basewarphq/bwfn/bwvalid"
	"github.com/cockroachdb/errors"
)

// Kind classifies the errors the router knows how to turn into responses.
// Any error that does not wrap an *Error is KindInternal.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindInvalid
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindBadRequest:
		return "bad_request"
	case KindInvalid:
		return "invalid"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	}
	return "unknown"
}

// Fixed response bodies.
const (
	BodyNotFound       = "Not Found"
	BodyForbidden      = "Forbidden"
	BodyInternal       = "Internal server error"
	BodyInvalidRequest = "Invalid request"
)

// Error is a domain error carrying the response it should produce. Message is
// shown to the caller for KindBadRequest and must be safe to display.
type Error struct {
	Kind    Kind
	Message string
	Issues  bwvalid.Issues
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindInvalid:
		return e.Issues.Error()
	case e.Message != "":
		return e.Message
	}
	return e.Kind.String()
}

// BadRequest returns an error that maps to a 400 response with msg as body.
func BadRequest(msg string) error {
	return errors.WithStackDepth(&Error{Kind: KindBadRequest, Message: msg}, 1)
}

// BadRequestf is BadRequest with formatting.
func BadRequestf(format string, args ...any) error {
	return errors.WithStackDepth(&Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}, 1)
}

// Invalid returns an error that maps to a 400 response listing issues.
func Invalid(issues bwvalid.Issues) error {
	return errors.WithStackDepth(&Error{Kind: KindInvalid, Issues: issues}, 1)
}

// Forbidden returns an error that maps to a 403 response.
func Forbidden() error {
	return errors.WithStackDepth(&Error{Kind: KindForbidden}, 1)
}

// NotFound returns an error that maps to a 404 response.
func NotFound() error {
	return errors.WithStackDepth(&Error{Kind: KindNotFound}, 1)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// responseFor maps an error to the response returned to API Gateway. Only
// bad-request messages and validation issues are exposed to the caller.
func responseFor(err error) Response {
	var e *Error
	if !errors.As(err, &e) {
		return Text(http.StatusInternalServerError, BodyInternal)
	}

	switch e.Kind {
	case KindBadRequest:
		return Text(http.StatusBadRequest, e.Message)
	case KindInvalid:
		return invalidResponse(e.Issues)
	case KindForbidden:
		return Text(http.StatusForbidden, BodyForbidden)
	case KindNotFound:
		return Text(http.StatusNotFound, BodyNotFound)
	case KindInternal:
		return Text(http.StatusInternalServerError, BodyInternal)
	}
	return Text(http.StatusInternalServerError, BodyInternal)
}

type errorBody struct {
	Error   string         `json:"error"`
	Details bwvalid.Issues `json:"details,omitempty"`
}

func invalidResponse(issues bwvalid.Issues) Response {
	body, err := json.Marshal(errorBody{Error: BodyInvalidRequest, Details: issues})
	if err != nil {
		return Text(http.StatusInternalServerError, BodyInternal)
	}
	return Response{
		StatusCode: http.StatusBadRequest,
		Headers:    map[string]string{"Content-Type": contentTypeJSON},
		Body:       string(body),
	}
}
