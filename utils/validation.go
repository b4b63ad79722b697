package utils

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so errors match the wire format
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
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
}

// ValidateStruct checks s against its validate tags. Field failures come back
// as *ValidationError; anything else, such as a non-struct argument, as is.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return NewValidationError(fieldErrs)
	}
	return err
}

// ValidationError wraps validation errors with structured details
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = e.Fields[k]
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(msgs, "; "))
}

// fieldMessages renders one message per validator tag from the field path
// and the tag parameter
var fieldMessages = map[string]func(field, param string) string{
	"required": func(f, _ string) string { return f + " is required" },
	"notblank": func(f, _ string) string { return f + " must not be blank" },
	"min":      func(f, p string) string { return fmt.Sprintf("%s must be at least %s", f, p) },
	"max":      func(f, p string) string { return fmt.Sprintf("%s must be at most %s", f, p) },
	"gt":       func(f, p string) string { return fmt.Sprintf("%s must be greater than %s", f, p) },
	"gte":      func(f, p string) string { return fmt.Sprintf("%s must be greater than or equal to %s", f, p) },
	"lt":       func(f, p string) string { return fmt.Sprintf("%s must be less than %s", f, p) },
	"lte":      func(f, p string) string { return fmt.Sprintf("%s must be less than or equal to %s", f, p) },
	"oneof":    func(f, p string) string { return fmt.Sprintf("%s must be one of: %s", f, p) },
}

// NewValidationError creates a ValidationError from validator.ValidationErrors
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fieldPath(fe)
		if render, ok := fieldMessages[fe.Tag()]; ok {
			fields[field] = render(field, fe.Param())
			continue
		}
		fields[field] = fmt.Sprintf("%s validation failed on '%s' tag", field, fe.Tag())
	}

	return &ValidationError{
		Message: "Validation failed",
		Fields:  fields,
	}
}

// fieldPath returns the dotted JSON path of the failing field without the
// root struct name, e.g. "patient.age" or "symptoms[0].description".
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// GetValidationFields extracts field errors from a ValidationError
func GetValidationFields(err error) map[string]string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	return nil
}
