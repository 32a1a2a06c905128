package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a request, connection or principal does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when a policy check denies the caller
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState is returned when an operation is not permitted in the current lifecycle state
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation is returned for malformed input
	ErrValidation = errors.New("validation failed")

	// ErrExecutionFailure is returned when the executor reports an error
	ErrExecutionFailure = errors.New("execution failed")

	// ErrTimeout is returned when execution exceeds its deadline
	ErrTimeout = errors.New("timeout")
)

// Error is a classified failure. Kind is one of the sentinels above.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches cause to an error of the given kind.
func Wrap(kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// NotFound creates an error of kind ErrNotFound
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an error of kind ErrUnauthorized
func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// InvalidState creates an error of kind ErrInvalidState
func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Validation creates an error of kind ErrValidation
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// ExecutionFailure creates an error of kind ErrExecutionFailure wrapping cause
func ExecutionFailure(cause error, format string, args ...interface{}) *Error {
	return Wrap(ErrExecutionFailure, cause, format, args...)
}

// Timeout creates an error of kind ErrTimeout wrapping cause
func Timeout(cause error, format string, args ...interface{}) *Error {
	return Wrap(ErrTimeout, cause, format, args...)
}
