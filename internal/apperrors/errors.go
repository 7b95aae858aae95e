package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies failures at the API boundary.
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation_error"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeExternalService ErrorType = "external_service_error"
	ErrorTypeInternal        ErrorType = "internal_error"
)

// AppError carries a type, a user-safe message and the underlying cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError.
func New(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    errorCode(errType),
	}
}

func Validation(message string, err error) *AppError {
	return New(ErrorTypeValidation, message, err)
}

func NotFound(message string, err error) *AppError {
	return New(ErrorTypeNotFound, message, err)
}

func Conflict(message string, err error) *AppError {
	return New(ErrorTypeConflict, message, err)
}

func ExternalService(message string, err error) *AppError {
	return New(ErrorTypeExternalService, message, err)
}

func Internal(message string, err error) *AppError {
	return New(ErrorTypeInternal, message, err)
}

// TypeOf returns the AppError type in err's chain, or internal.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Is reports whether err carries an AppError of type t.
func Is(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// HTTPStatus maps an error to a response status.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a client.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

func errorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeConflict:
		return "CONFLICT"
	case ErrorTypeExternalService:
		return "EXTERNAL_SERVICE_ERROR"
	case ErrorTypeInternal:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// CodeOf returns the error code for err, INTERNAL_ERROR when untyped.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return errorCode(ErrorTypeInternal)
}
