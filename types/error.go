package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the framework.
type ErrorCode string

// Graph construction and validation error codes
const (
	ErrDuplicateNode     ErrorCode = "DUPLICATE_NODE"
	ErrMissingDependency ErrorCode = "MISSING_DEPENDENCY"
	ErrCyclicDependency  ErrorCode = "CYCLIC_DEPENDENCY"
)

// Execution error codes
const (
	ErrOutputNotReady    ErrorCode = "OUTPUT_NOT_READY"
	ErrBindingUnresolved ErrorCode = "BINDING_UNRESOLVED"
	ErrCallExhausted     ErrorCode = "CALL_EXHAUSTED"
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION"
)

// Configuration and registry error codes
const (
	ErrInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
	ErrNotRegistered        ErrorCode = "NOT_REGISTERED"
	ErrAlreadyRegistered    ErrorCode = "ALREADY_REGISTERED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Node      string    `json:"node,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithNode tags the error with the workflow node it originated from.
func (e *Error) WithNode(node string) *Error {
	e.Node = node
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// AsError extracts a *Error from err's chain, or nil if there is none.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e := AsError(err); e != nil {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e := AsError(err); e != nil {
		return e.Retryable
	}
	return false
}
