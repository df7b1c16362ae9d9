package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error      string      `json:"error"`
	StatusCode int         `json:"status_code"`
	Detail     interface{} `json:"detail"`
}

// Kind classifies a domain failure independently of any transport status.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindPersistence
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPersistence:
		return "persistence"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Violation is a single field-level validation failure.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error is the domain error returned by every layer below the HTTP handlers.
type Error struct {
	Kind       Kind
	Message    string
	Violations []Violation
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if len(e.Violations) > 0 {
		return fmt.Sprintf("%s: %d violation(s)", e.Message, len(e.Violations))
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error carrying every violation found.
func NewValidationError(violations []Violation) *Error {
	return &Error{
		Kind:       KindValidation,
		Message:    "validation failed",
		Violations: violations,
	}
}

// NewNotFoundError creates a not-found error for a product id.
func NewNotFoundError(id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Product with id %d not found", id),
	}
}

// NewNameNotFoundError creates a not-found error for a product name.
func NewNameNotFoundError(name string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Product with name '%s' not found", name),
	}
}

// NewConflictError creates a conflict error for a product name that is taken.
func NewConflictError(name string) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("Product with name '%s' already exists", name),
	}
}

// NewPersistenceError wraps a store failure. The cause is kept for logging
// and never exposed to callers.
func NewPersistenceError(op string, err error) *Error {
	return &Error{
		Kind:    KindPersistence,
		Message: op,
		Err:     err,
	}
}

// NewConfigurationError creates a startup configuration error.
func NewConfigurationError(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of err, or zero when err is not a domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// IsNotFound reports whether err is a not-found domain error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
