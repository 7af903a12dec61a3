package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Application codes. They are stable across releases and independent of the
// HTTP status that carries them.
const (
	CodeOK                    = 0
	CodeValidationFailed      = 40000
	CodeInvalidToken          = 40001
	CodeStaleOrInvalidVersion = 40002
	CodeTableUnavailable      = 40003
	CodeUnauthorized          = 40100
	CodeForbidden             = 40300
	CodeNotFound              = 40400
	CodeConflict              = 40900
	CodeTooManyRequests       = 42900
	CodeInternal              = 50000
	CodeServiceUnavailable    = 50300
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the typed error every service raises.
type AppError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"-"`
	Errors  []FieldError `json:"errors,omitempty"`
	Err     error        `json:"-"`
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

// Is matches on the application code so errors.Is works with the sentinels below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrUnauthorized       = &AppError{Code: CodeUnauthorized, Message: "unauthorized", Status: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: CodeForbidden, Message: "you do not have permission", Status: http.StatusForbidden}
	ErrNotFound           = &AppError{Code: CodeNotFound, Message: "not found", Status: http.StatusNotFound}
	ErrConflict           = &AppError{Code: CodeConflict, Message: "conflict", Status: http.StatusConflict}
	ErrValidation         = &AppError{Code: CodeValidationFailed, Message: "validation failed", Status: http.StatusBadRequest}
	ErrInvalidToken       = &AppError{Code: CodeInvalidToken, Message: "invalid token", Status: http.StatusBadRequest}
	ErrStaleVersion       = &AppError{Code: CodeStaleOrInvalidVersion, Message: "token is no longer valid", Status: http.StatusGone}
	ErrTableUnavailable   = &AppError{Code: CodeTableUnavailable, Message: "table is not available", Status: http.StatusNotFound}
	ErrTooManyRequests    = &AppError{Code: CodeTooManyRequests, Message: "too many requests", Status: http.StatusTooManyRequests}
	ErrServiceUnavailable = &AppError{Code: CodeServiceUnavailable, Message: "service unavailable", Status: http.StatusServiceUnavailable}
	ErrInternal           = &AppError{Code: CodeInternal, Message: "internal server error", Status: http.StatusInternalServerError}
)

func newAppError(base *AppError, message string, cause error) *AppError {
	if message == "" {
		message = base.Message
	}
	return &AppError{Code: base.Code, Message: message, Status: base.Status, Err: cause}
}

func Unauthorized(message string) *AppError { return newAppError(ErrUnauthorized, message, nil) }
func Forbidden(message string) *AppError    { return newAppError(ErrForbidden, message, nil) }
func NotFound(message string) *AppError     { return newAppError(ErrNotFound, message, nil) }
func Conflict(message string) *AppError     { return newAppError(ErrConflict, message, nil) }

func ServiceUnavailable(message string, cause error) *AppError {
	return newAppError(ErrServiceUnavailable, message, cause)
}

func Internal(cause error) *AppError {
	return newAppError(ErrInternal, "", cause)
}

// Validation builds a ValidationFailed error from field errors.
func Validation(fields ...FieldError) *AppError {
	e := newAppError(ErrValidation, "", nil)
	e.Errors = fields
	return e
}

// NewAppError rebuilds a typed error received from another service.
func NewAppError(code int, message string, status int, fields []FieldError) *AppError {
	if status == 0 {
		status = statusForCode(code)
	}
	return &AppError{Code: code, Message: message, Status: status, Errors: fields}
}

func statusForCode(code int) int {
	switch {
	case code >= 50300:
		return http.StatusServiceUnavailable
	case code >= 50000:
		return http.StatusInternalServerError
	case code == CodeStaleOrInvalidVersion:
		return http.StatusGone
	case code == CodeTableUnavailable:
		return http.StatusNotFound
	case code >= 40000 && code < 50000:
		return code / 100
	}
	return http.StatusInternalServerError
}

// AsAppError converts any error into an AppError. Unknown errors become Internal
// with the cause kept for logging only.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return newAppError(ErrNotFound, "", err)
	case errors.Is(err, context.DeadlineExceeded):
		return ServiceUnavailable("", err)
	}

	return Internal(err)
}
