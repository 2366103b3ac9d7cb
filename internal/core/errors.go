// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// AppError is an error carrying the message shown to the UI and the HTTP
// status the BFF answers with.
type AppError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Err:        err,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func ValidationError(message string) *AppError {
	return NewAppError("VALIDATION_ERROR", message, http.StatusBadRequest, ErrInvalidInput)
}

func NotFoundError(resource string) *AppError {
	return NewAppError("NOT_FOUND", resource+" not found", http.StatusNotFound, ErrNotFound)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError("UNAUTHORIZED", message, http.StatusUnauthorized, ErrUnauthorized)
}

func ForbiddenError(message string) *AppError {
	return NewAppError("FORBIDDEN", message, http.StatusForbidden, ErrForbidden)
}

func TokenExpiredError() *AppError {
	return NewAppError("TOKEN_EXPIRED", "token has expired", http.StatusUnauthorized, ErrTokenExpired)
}

func TokenInvalidError() *AppError {
	return NewAppError("TOKEN_INVALID", "token is invalid", http.StatusUnauthorized, ErrTokenInvalid)
}

// Message returns the human-readable text for err. Backend and validation
// messages pass through verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	var msgErr interface{ UserMessage() string }
	if errors.As(err, &msgErr) {
		return msgErr.UserMessage()
	}

	return err.Error()
}

// StatusCode maps err onto the HTTP status the BFF responds with.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}

	var statusErr interface{ HTTPStatus() int }
	if errors.As(err, &statusErr) && statusErr.HTTPStatus() != 0 {
		return statusErr.HTTPStatus()
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicateKey):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
