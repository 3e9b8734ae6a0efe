package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code. The values double as the
// err kind on the tool wire format.
type ErrorCode string

// Tool-facing error kinds
const (
	ErrNotFound ErrorCode = "not_found"
	ErrInvalid  ErrorCode = "invalid"
)

// Run-level error kinds
const (
	ErrProtocol       ErrorCode = "protocol"
	ErrBudgetExceeded ErrorCode = "budget_exceeded"
	ErrCancelled      ErrorCode = "cancelled"
)

// Evaluator-local error kinds
const (
	ErrParse ErrorCode = "parse"
	ErrJudge ErrorCode = "judge_error"
)

// ErrInternal marks failures of the harness itself.
const ErrInternal ErrorCode = "internal"

// Error represents a structured error with code, message, and cause.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
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

// AsError extracts an *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error chain.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	return err != nil && GetErrorCode(err) == code
}
