package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType int

const (
	// ErrorTypeTransport indicates an underlying connection fault
	ErrorTypeTransport ErrorType = iota
	// ErrorTypeProtocol indicates a malformed inbound event
	ErrorTypeProtocol
	// ErrorTypeValidation indicates rejected user input
	ErrorTypeValidation
	// ErrorTypeAuthRequired indicates an action attempted before login
	ErrorTypeAuthRequired
	// ErrorTypeNotFound indicates a missing delivery target
	ErrorTypeNotFound
	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal
)

// Error represents a structured error with metadata
type Error struct {
	Type      ErrorType `json:"type"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (caused by: %v)", e.Code, e.Message, e.Details, e.Cause)
	}
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// New creates a new error
func New(errorType ErrorType, code, message string) *Error {
	return &Error{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, errorType ErrorType, code, message string) *Error {
	return &Error{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Cause:     err,
		Timestamp: time.Now(),
	}
}

// WithDetails adds details to an error
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// TypeOf reports the structured type of err, if it carries one
func TypeOf(err error) (ErrorType, bool) {
	e, ok := err.(*Error)
	if !ok {
		return 0, false
	}
	return e.Type, true
}

// IsType reports whether err is a structured error of the given type
func IsType(err error, errorType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errorType
}

// NewValidation creates a validation error surfaced to the originator only
func NewValidation(code, message string) *Error {
	return New(ErrorTypeValidation, code, message)
}

// NewAuthRequired creates an authentication-required error
func NewAuthRequired(code, message string) *Error {
	return New(ErrorTypeAuthRequired, code, message)
}

// NewNotFound creates a missing-target error
func NewNotFound(code, message string) *Error {
	return New(ErrorTypeNotFound, code, message)
}
