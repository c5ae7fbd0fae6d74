// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance. JSON tag names are reported in
// field errors so messages match the request payload.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// RegisterStructValidation registers a struct-level rule for each of the given types.
func (val *Validator) RegisterStructValidation(fn validator.StructLevelFunc, types ...interface{}) {
	val.v.RegisterStructValidation(fn, types...)
}

// FieldErrors flattens validation failures into "field: rule" pairs for
// response details. Errors that are not validation errors yield nil.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), rootNamespace(fe.Namespace()))
		if key == "" {
			key = fe.Field()
		}
		if fe.Param() != "" {
			out[key] = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		} else {
			out[key] = fe.Tag()
		}
	}
	return out
}

func rootNamespace(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[:i+1]
	}
	return ""
}
