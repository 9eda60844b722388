package errors

import (
	"errors"
	"fmt"
	"net/http"

	"deskcast/internal/core/domain"
)

// ErrorCode represents application error codes
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeNegotiation  ErrorCode = "NEGOTIATION_FAILED"
	ErrCodeCapture      ErrorCode = "CAPTURE_UNAVAILABLE"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with code and HTTP status
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

// Error implements error interface
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

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// WrapError wraps an existing error with application error
func WrapError(err error, code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Cause:      err,
	}
}

// FromDomain maps domain errors onto HTTP-facing application errors.
func FromDomain(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return WrapError(err, ErrCodeNotFound, "connection not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidQuality):
		return WrapError(err, ErrCodeInvalidInput, "invalid quality preset", http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidCandidate):
		return WrapError(err, ErrCodeInvalidInput, "invalid ice candidate", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNegotiationFailed):
		return WrapError(err, ErrCodeNegotiation, "webrtc negotiation failed", http.StatusBadGateway)
	case errors.Is(err, domain.ErrCaptureUnavailable):
		return WrapError(err, ErrCodeCapture, "no capturable display", http.StatusServiceUnavailable)
	default:
		return WrapError(err, ErrCodeInternal, "internal error", http.StatusInternalServerError)
	}
}
