package common

import (
	"errors"
	"fmt"
)

// ErrorCode represents different types of errors in the system
type ErrorCode int

const (
	// General errors
	ErrInternal ErrorCode = iota + 1000
	ErrInvalidInput
	ErrNotFound
	ErrAlreadyExists
	ErrConflict
	ErrTimeout
	ErrUnavailable

	// Authentication errors
	ErrUnauthorized ErrorCode = iota + 2000
	ErrForbidden
	ErrInvalidToken
	ErrTokenExpired

	// Query errors
	ErrQueryInvalid ErrorCode = iota + 3000
	ErrQueryEntityUnknown
	ErrQueryFieldUnknown
	ErrQueryCursorInvalid
	ErrQueryTimeRangeInvalid
	ErrQueryNotReadOnly
	ErrQueryExecution

	// Onboarding errors
	ErrPackageNotFound ErrorCode = iota + 4000
	ErrPackageRevoked
	ErrPackageDelivered
	ErrPackageExpired
	ErrDownloadTokenInvalid

	// Storage errors
	ErrArtifactNotFound ErrorCode = iota + 5000
	ErrArtifactUnavailable
)

// ConsoleError represents an error in the console backend
type ConsoleError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *ConsoleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ConsoleError) Unwrap() error {
	return e.Cause
}

// NewError creates a new ConsoleError
func NewError(code ErrorCode, message string) *ConsoleError {
	return &ConsoleError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewErrorWithCause creates a new ConsoleError with an underlying cause
func NewErrorWithCause(code ErrorCode, message string, cause error) *ConsoleError {
	return &ConsoleError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *ConsoleError) WithContext(key string, value interface{}) *ConsoleError {
	e.Context[key] = value
	return e
}

// CodeOf extracts the ErrorCode from an error chain, defaulting to ErrInternal
func CodeOf(err error) ErrorCode {
	var consoleErr *ConsoleError
	if errors.As(err, &consoleErr) {
		return consoleErr.Code
	}
	return ErrInternal
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var consoleErr *ConsoleError
	if errors.As(err, &consoleErr) {
		return consoleErr.Code == code
	}
	return false
}

// Common error constructors
func ErrInternalError(message string) *ConsoleError {
	return NewError(ErrInternal, message)
}

func ErrInvalidInputError(message string) *ConsoleError {
	return NewError(ErrInvalidInput, message)
}

func ErrNotFoundError(message string) *ConsoleError {
	return NewError(ErrNotFound, message)
}

func ErrUnauthorizedError(message string) *ConsoleError {
	return NewError(ErrUnauthorized, message)
}

func ErrQueryInvalidError(message string) *ConsoleError {
	return NewError(ErrQueryInvalid, message)
}

func ErrQueryEntityUnknownError(entity string) *ConsoleError {
	return NewError(ErrQueryEntityUnknown, fmt.Sprintf("unknown entity: %s", entity))
}
