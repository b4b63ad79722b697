package services

import (
	"errors"
	"fmt"
)

// ErrorType classifies a DomainError. The HTTP layer maps each type to a status.
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
	ErrorTypeUnavailable  ErrorType = "unavailable"
)

// DomainError is an error with a type, a client-safe message and an optional
// cause. Details are copied into HTTP error bodies.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports a match when type and message are equal, so a sentinel still
// matches after WrapSentinel attached a cause to a copy of it.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Type == t.Type && e.Message == t.Message
}

// WithDetail sets key on the receiver and returns it for chaining
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{Type: errType, Message: message, Err: err, Details: map[string]interface{}{}}
}

var (
	ErrNoEligibleProvider = NewDomainError(ErrorTypeNotFound, "no eligible provider for specialty", nil)

	ErrEmptyInput           = NewDomainError(ErrorTypeValidation, "patient_input is required", nil)
	ErrInvalidInput         = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrMalformedModelOutput = NewDomainError(ErrorTypeValidation, "malformed model output", nil)
	ErrInvalidDirectory     = NewDomainError(ErrorTypeValidation, "invalid provider directory", nil)

	ErrInvalidToken = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrTokenExpired = NewDomainError(ErrorTypeUnauthorized, "authentication token expired", nil)

	ErrRateLimitExceeded = NewDomainError(ErrorTypeRateLimit, "rate limit exceeded", nil)

	ErrDuplicateProvider = NewDomainError(ErrorTypeConflict, "duplicate provider id", nil)

	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)
	ErrStagePanic    = NewDomainError(ErrorTypeInternal, "stage panicked", nil)

	ErrModelUnavailable = NewDomainError(ErrorTypeExternal, "model client unavailable", nil)
	ErrModelTimeout     = NewDomainError(ErrorTypeExternal, "model client timeout", nil)

	ErrModelPathDisabled = NewDomainError(ErrorTypeUnavailable, "model path disabled", nil)
	ErrFallbackDisabled  = NewDomainError(ErrorTypeUnavailable, "fallback disabled", nil)
)

// GetErrorType returns the type of the first DomainError in err's chain, or ""
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return ""
	}
	return domainErr.Type
}

// HasType reports whether err's chain holds a DomainError of type t
func HasType(err error, t ErrorType) bool {
	return err != nil && GetErrorType(err) == t
}

func IsValidationError(err error) bool   { return HasType(err, ErrorTypeValidation) }
func IsUnauthorizedError(err error) bool { return HasType(err, ErrorTypeUnauthorized) }
func IsInternalError(err error) bool     { return HasType(err, ErrorTypeInternal) }
func IsExternalError(err error) bool     { return HasType(err, ErrorTypeExternal) }

// WrapInternal reports err as an internal failure with message
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal reports err as a model client failure with message
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}

// WrapSentinel returns a copy of sentinel with cause attached. The sentinel
// is left untouched.
func WrapSentinel(sentinel *DomainError, cause error) error {
	return NewDomainError(sentinel.Type, sentinel.Message, cause)
}
