package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeStore represents graph store errors
	ErrorTypeStore ErrorType = "store"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Category returns the error's type. Errors embedding BaseError inherit it,
// so IsErrorType works on them without unwrapping.
func (e *BaseError) Category() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Config Errors

// ErrConfigInsecureSecret is returned when a production configuration still
// carries the development placeholder secret
var ErrConfigInsecureSecret = NewBaseError(ErrorTypeConfig, "secret key is the development placeholder", nil)

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// ErrConfigInvalidValue is returned when a config entry holds a value of the
// wrong type or outside its accepted range
type ErrConfigInvalidValue struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigInvalidValue(field, reason string) *ErrConfigInvalidValue {
	return &ErrConfigInvalidValue{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("invalid config value: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Store Errors

// ErrStoreConnectionFailed is returned when the backing store cannot be reached
type ErrStoreConnectionFailed struct {
	*BaseError
	URI string
}

func NewStoreConnectionFailed(uri string, err error) *ErrStoreConnectionFailed {
	return &ErrStoreConnectionFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("failed to connect to store: %s", uri), err),
		URI:       uri,
	}
}

// ErrStoreQueryFailed is returned when a store query fails
type ErrStoreQueryFailed struct {
	*BaseError
	Query string
}

func NewStoreQueryFailed(query string, err error) *ErrStoreQueryFailed {
	return &ErrStoreQueryFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if typed, ok := err.(interface{ Category() ErrorType }); ok {
		return typed.Category() == errType
	}
	// Check wrapped errors
	if wrapped, ok := err.(interface{ Unwrap() error }); ok && wrapped.Unwrap() != nil {
		return IsErrorType(wrapped.Unwrap(), errType)
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Config errors need operator intervention
	if IsErrorType(err, ErrorTypeConfig) {
		return false
	}
	// Store connections may recover
	if IsErrorType(err, ErrorTypeStore) {
		return true
	}
	return false
}
