package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinel errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnsupported  = errors.New("unsupported media type")
	ErrInternal     = errors.New("internal error")
)

// AppError represents an application-specific error with an HTTP status code.
type AppError struct {
	Code    int
	Message string
	Err     error
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

// Body is the JSON error payload returned to clients.
func (e *AppError) Body() map[string]any {
	body := map[string]any{"error": e.Message}
	if e.Err != nil && e.Code < http.StatusInternalServerError {
		body["detail"] = e.Err.Error()
	}
	return body
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapError maps a common error to an AppError with an appropriate HTTP status code.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return NewAppError(http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, "Resource not found", err)
	case errors.Is(err, ErrForbidden):
		return NewAppError(http.StatusForbidden, "Forbidden", err)
	case errors.Is(err, ErrConflict):
		return NewAppError(http.StatusConflict, "Conflict", err)
	case errors.Is(err, ErrUnsupported):
		return NewAppError(http.StatusUnsupportedMediaType, "Unsupported media type", err)
	}

	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}
