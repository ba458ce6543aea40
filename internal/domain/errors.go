package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
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

// Is matches on Code so that errors built with WithError still compare
// equal to the predefined value they were derived from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "System error occurred!",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	// Access errors
	ErrInvalidCode = &AppError{
		Code:       "INVALID_REFERENCE_CODE",
		Message:    "Invalid reference code!",
		StatusCode: 401,
	}

	ErrUsageLimitReached = &AppError{
		Code:       "USAGE_LIMIT_REACHED",
		Message:    "This code has reached its maximum usage limit!",
		StatusCode: 403,
	}

	ErrSessionNotFound = &AppError{
		Code:       "SESSION_NOT_FOUND",
		Message:    "Browser session not found",
		StatusCode: 404,
	}

	ErrNoIdentity = &AppError{
		Code:       "NO_IDENTITY",
		Message:    "Unable to identify browser",
		StatusCode: 401,
	}

	// Storage errors
	ErrStorageUnavailable = &AppError{
		Code:       "STORAGE_UNAVAILABLE",
		Message:    "System error occurred!",
		StatusCode: 503,
	}

	ErrStorageCorrupt = &AppError{
		Code:       "STORAGE_CORRUPT",
		Message:    "System error occurred!",
		StatusCode: 500,
	}

	// Detection errors
	ErrDetectionUnavailable = &AppError{
		Code:       "DETECTION_UNAVAILABLE",
		Message:    "Detection service unavailable",
		StatusCode: 503,
	}

	ErrDetectionUnsupported = &AppError{
		Code:       "DETECTION_UNSUPPORTED",
		Message:    "Detection mode not supported by provider",
		StatusCode: 501,
	}

	ErrCaptureUnavailable = &AppError{
		Code:       "CAPTURE_UNAVAILABLE",
		Message:    "Video capture unavailable",
		StatusCode: 503,
	}
)
