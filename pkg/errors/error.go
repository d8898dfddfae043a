// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Malformed proposals, non-numeric input, bad configuration
//   - Balance errors (200-299): Insufficient funds and wallet state
//   - Backend errors (300-399): Execution backend failures, timeouts, batch rollbacks
//   - Advisory errors (400-499): Hard rejections and failures of the AI validator
//   - Executor errors (500-599): Trade lifecycle errors
//   - Persistence errors (600-699): Trade history sink failures
//
// Admission rejections from the risk manager are not errors. They are returned as data.
//
// Usage:
//
//	err := errors.New(errors.ErrCodeInsufficientBalance, "balance below minimum")
//	err := errors.Wrap(errors.ErrCodeOrderFailed, "failed to place order", cause)
//	if errors.IsBalanceError(err) { ... }
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
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InCategory reports whether the outermost coded error belongs to the category.
func InCategory(err error, category Category) bool {
	if err == nil {
		return false
	}

	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	return e.Code.Category() == category
}

// IsValidationError reports malformed or out-of-range input.
func IsValidationError(err error) bool {
	return InCategory(err, CategoryValidation)
}

// IsBalanceError reports insufficient funds or an unusable wallet.
func IsBalanceError(err error) bool {
	return InCategory(err, CategoryBalance)
}

// IsBackendError reports transient execution backend failures.
func IsBackendError(err error) bool {
	return InCategory(err, CategoryBackend)
}

// IsAdvisoryError reports AI validator rejections and failures.
func IsAdvisoryError(err error) bool {
	return InCategory(err, CategoryAdvisory)
}
