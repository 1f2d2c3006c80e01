package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
)

// AppError represents an application-specific error
type AppError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Cause     error  `json:"-"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Operation string `json:"operation,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// newAppError records the location of its caller's caller
func newAppError(code, message string, cause error) *AppError {
	_, file, line, _ := runtime.Caller(2)
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
		File:    file,
		Line:    line,
	}
}

// WithOperation adds operation context to the error
func (e *AppError) WithOperation(operation string) *AppError {
	e.Operation = operation
	return e
}

// WithDetails adds additional details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// Common error codes
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeValidationError    = "VALIDATION_ERROR"
	ErrCodeServiceError       = "SERVICE_ERROR"
	ErrCodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrCodeBackendUnavailable = "BACKEND_UNAVAILABLE"
)

// Sentinel errors shared across packages
var (
	ErrBackendUnavailable = stderrors.New("analysis backend unavailable")
	ErrAssessmentNotFound = stderrors.New("assessment not found")
	ErrInvalidResponse    = stderrors.New("invalid model response")
)

// Common error constructors
func NotFound(message string, cause error) *AppError {
	return newAppError(ErrCodeNotFound, message, cause)
}

func InvalidInput(message string, cause error) *AppError {
	return newAppError(ErrCodeInvalidInput, message, cause)
}

func Unauthorized(message string, cause error) *AppError {
	return newAppError(ErrCodeUnauthorized, message, cause)
}

func Forbidden(message string, cause error) *AppError {
	return newAppError(ErrCodeForbidden, message, cause)
}

func InternalError(message string, cause error) *AppError {
	return newAppError(ErrCodeInternalError, message, cause)
}

func DatabaseError(message string, cause error) *AppError {
	return newAppError(ErrCodeDatabaseError, message, cause)
}

func ValidationError(message string, cause error) *AppError {
	return newAppError(ErrCodeValidationError, message, cause)
}

func ServiceError(message string, cause error) *AppError {
	return newAppError(ErrCodeServiceError, message, cause)
}

func PayloadTooLarge(message string, cause error) *AppError {
	return newAppError(ErrCodePayloadTooLarge, message, cause)
}

func BackendUnavailable(message string, cause error) *AppError {
	return newAppError(ErrCodeBackendUnavailable, message, cause)
}

// HTTPStatus maps an error to the response status handlers should use.
// Errors that are not AppErrors are internal.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		if stderrors.Is(err, ErrAssessmentNotFound) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidInput, ErrCodeValidationError:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeBackendUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the AppError code of err, or ErrCodeInternalError
func Code(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}
