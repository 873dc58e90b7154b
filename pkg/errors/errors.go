package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents the type of error
type ErrorCode string

const (
	// Client errors
	ErrBadRequest      ErrorCode = "BAD_REQUEST"
	ErrNotFound        ErrorCode = "NOT_FOUND"
	ErrConflict        ErrorCode = "CONFLICT"
	ErrValidation      ErrorCode = "VALIDATION_ERROR"
	ErrUnsupportedType ErrorCode = "UNSUPPORTED_LAB_TYPE"

	// Server errors
	ErrInternal      ErrorCode = "INTERNAL_ERROR"
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrProvision     ErrorCode = "PROVISION_ERROR"
	ErrTermination   ErrorCode = "TERMINATION_ERROR"
	ErrExec          ErrorCode = "EXEC_ERROR"
	ErrPipeline      ErrorCode = "PIPELINE_ERROR"
	ErrTimeout       ErrorCode = "TIMEOUT"
)

// AppError represents an application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	StatusCode int                    `json:"-"`
	Err        error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithError adds an underlying error
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Constructor functions for common errors

// NewBadRequest creates a bad request error
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:       ErrBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error
func NewNotFound(resource string) *AppError {
	return &AppError{
		Code:       ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

// NewConflict creates a conflict error
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       ErrConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewValidation creates a validation error
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       ErrValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewUnsupportedType creates an error for an unknown lab type
func NewUnsupportedType(labType string) *AppError {
	return &AppError{
		Code:       ErrUnsupportedType,
		Message:    fmt.Sprintf("Unsupported lab type: %s", labType),
		StatusCode: http.StatusBadRequest,
	}
}

// NewInternal creates an internal server error
func NewInternal(message string) *AppError {
	return &AppError{
		Code:       ErrInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewDatabaseError creates a database error
func NewDatabaseError(message string) *AppError {
	return &AppError{
		Code:       ErrDatabaseError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewProvision creates an error for a failed workload provisioning call
func NewProvision(message string) *AppError {
	return &AppError{
		Code:       ErrProvision,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewTermination creates an error for a failed workload deletion call
func NewTermination(message string) *AppError {
	return &AppError{
		Code:       ErrTermination,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewExec creates an error for a failed remote command execution
func NewExec(message string) *AppError {
	return &AppError{
		Code:       ErrExec,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewPipeline creates an error wrapping a setup pipeline failure
func NewPipeline(message string) *AppError {
	return &AppError{
		Code:       ErrPipeline,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrNotFound
	}
	return false
}

// IsValidation checks if error is a validation error
func IsValidation(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrValidation
	}
	return false
}

// IsUnsupportedType checks if error is an unsupported lab type error
func IsUnsupportedType(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrUnsupportedType
	}
	return false
}
