// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Configuration errors (100-199): Invalid lookback, capital, cost rate
//   - Data errors (200-299): Insufficient data, non-positive prices, query failures
//   - Collaborator errors (300-399): Forecaster/policy failures and timeouts
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidCapital, "initial capital must be positive")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeNonPositivePrice, "price %f on %s", price, date)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to read window", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeForecastUnavailable) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error or
// *CollaboratorError type. Returns ErrCodeUnknown otherwise.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var collabErr *CollaboratorError
	if errors.As(err, &collabErr) {
		return collabErr.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetCategory returns the failure category of an error based on its code.
func GetCategory(err error) Category {
	return CategoryOf(GetCode(err))
}

// CollaboratorError represents a fatal forecaster or policy failure, carrying
// the index of the last step that completed before the run aborted so a
// caller can decide whether to retry the whole run.
type CollaboratorError struct {
	Step    int    // Index of the last completed step, -1 when none completed
	Code    ErrorCode
	Message string
	Cause   error
}

// NewCollaboratorError creates a new CollaboratorError.
func NewCollaboratorError(step int, code ErrorCode, message string, cause error) *CollaboratorError {
	return &CollaboratorError{
		Step:    step,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s (last completed step %d): %v", e.Code, e.Message, e.Step, e.Cause)
	}

	return fmt.Sprintf("[%d] %s (last completed step %d)", e.Code, e.Message, e.Step)
}

// Unwrap returns the underlying error cause.
func (e *CollaboratorError) Unwrap() error {
	return e.Cause
}

// IsCollaboratorError checks if an error is a CollaboratorError.
// It uses errors.As to check the error chain.
func IsCollaboratorError(err error) bool {
	var collabErr *CollaboratorError

	return errors.As(err, &collabErr)
}
