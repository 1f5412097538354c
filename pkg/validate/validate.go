// Package validate wraps a shared go-playground validator configured to
// report fields by their JSON names.
package validate

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

var std = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Error lists the fields that failed validation with a short message each.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e.Fields[name]
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	if err := std.Struct(s); err != nil {
		return convert(err)
	}
	return nil
}

// Var validates a single value against tag, reporting it under name.
func Var(name string, v any, tag string) error {
	if err := std.Var(v, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &Error{Fields: map[string]string{name: message(verrs[0])}}
		}
		return errors.Wrapf(err, "validate %s", name)
	}
	return nil
}

// Each runs Struct on every element, prefixing field names with the index.
func Each[T any](items []T) error {
	for i := range items {
		if err := Struct(items[i]); err != nil {
			var verr *Error
			if errors.As(err, &verr) {
				fields := make(map[string]string, len(verr.Fields))
				for name, msg := range verr.Fields {
					fields[fmt.Sprintf("[%d].%s", i, name)] = msg
				}
				return &Error{Fields: fields}
			}
			return err
		}
	}
	return nil
}

func convert(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return &Error{Fields: fields}
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "unique":
		return "must not contain duplicates"
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
