package bwvalid

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var sharedValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return v
})

// StructSchema decodes JSON into T and validates it with struct tags.
type StructSchema[T any] struct {
	validate *validator.Validate
}

// Struct returns a Schema that decodes into T and checks its `validate` tags.
// Issue paths use the JSON field names of T.
func Struct[T any]() *StructSchema[T] {
	return &StructSchema[T]{validate: sharedValidator()}
}

// Parse is the typed form of Validate.
func (s *StructSchema[T]) Parse(ctx context.Context, raw json.RawMessage) (T, Issues, error) {
	var val T
	var issues Issues

	if err := json.Unmarshal(raw, &val); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			issues.Add("", CodeSyntax, MsgSyntax)
			return val, issues, nil
		}
		issues.Add(typeErr.Field, "type", "must be "+article(typeErr.Type))
	}

	if !isStruct(reflect.TypeOf(val)) {
		return val, issues, nil
	}

	err := s.validate.StructCtx(ctx, val)
	if err == nil {
		return val, issues, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return val, nil, errors.Wrapf(err, "validate %T", val)
	}

	typed := map[string]bool{}
	for _, iss := range issues {
		typed[iss.Path] = true
	}
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		if typed[path] {
			continue
		}
		issues.Add(path, fe.Tag(), tagMessage(fe))
	}
	return val, issues, nil
}

func (s *StructSchema[T]) Validate(ctx context.Context, raw json.RawMessage) (any, Issues, error) {
	return s.Parse(ctx, raw)
}

func isStruct(t reflect.Type) bool {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}

// fieldPath turns "Price.items[0].amount" into "items.0.amount".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	ns = strings.ReplaceAll(ns, "[", ".")
	return strings.ReplaceAll(ns, "]", "")
}

func article(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "a " + t.String()
	}
}

func tagMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "numeric":
		return "must be numeric"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed validation (%s)", fe.Tag())
	}
}
