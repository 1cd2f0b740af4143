package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNotFound indicates a required element was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeOutOfRange indicates an argument outside its valid range
	ErrorTypeOutOfRange ErrorType = "OUT_OF_RANGE"
	// ErrorTypeInvalidArgument indicates an argument that cannot be used
	ErrorTypeInvalidArgument ErrorType = "INVALID_ARGUMENT"
	// ErrorTypeMultipleElements indicates more than one element where at most one was required
	ErrorTypeMultipleElements ErrorType = "MULTIPLE_ELEMENTS"
	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new application error
func New(errorType ErrorType, message string) error {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

// Wrap wraps an error with an application error
func Wrap(errorType ErrorType, message string, err error) error {
	return &AppError{
		Type:    errorType,
		Message: message,
		Err:     err,
	}
}

// NotFound creates a not found error
func NotFound(message string) error {
	return New(ErrorTypeNotFound, message)
}

// NoElements is returned when an operation requiring an element finds none
func NoElements() error {
	return NotFound("sequence contains no elements")
}

// OutOfRange creates an out-of-range error naming the parameter and its value
func OutOfRange(param string, value any) error {
	return New(ErrorTypeOutOfRange, fmt.Sprintf("%s must be greater than or equal to 1, got %v", param, value))
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(message string) error {
	return New(ErrorTypeInvalidArgument, message)
}

// UnsupportedMode creates an invalid argument error naming an unsupported mode
func UnsupportedMode(kind, mode string) error {
	return New(ErrorTypeInvalidArgument, fmt.Sprintf("unsupported %s: %q", kind, mode))
}

// MoreThanOneElement is the single source of the multiplicity failure raised
// when exactly one or at most one element was required
func MoreThanOneElement() error {
	return New(ErrorTypeMultipleElements, "sequence contains more than one element")
}

// Internal creates an internal error
func Internal(message string) error {
	return New(ErrorTypeInternal, message)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsOutOfRange checks if an error is an out-of-range error
func IsOutOfRange(err error) bool {
	return isType(err, ErrorTypeOutOfRange)
}

// IsInvalidArgument checks if an error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return isType(err, ErrorTypeInvalidArgument)
}

// IsMultipleElements checks if an error is a multiplicity error
func IsMultipleElements(err error) bool {
	return isType(err, ErrorTypeMultipleElements)
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return isType(err, ErrorTypeInternal)
}

func isType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}
