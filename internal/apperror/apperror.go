// Package apperror defines the application's error taxonomy.
//
// Every error that crosses a layer boundary is either one of the sentinels
// below (checked with errors.Is) or an *AppError wrapping one of them, which
// adds a human-readable message and, for validation failures, the offending
// field. Transport layers (HTTP handlers, the API client, the CLI) translate
// sentinels to status codes and back.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRemote marks a failed call to the remote data store: the request
	// could not be sent, or the server answered with something unexpected.
	ErrRemote = errors.New("remote failure")
)

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying error (remote failures)
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause, so errors.Is matches
// either one.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means the caller is not signed in, or the credentials were
// rejected. The message is shown as-is on the sign-in form.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Remote wraps a data store failure. op names what was attempted
// ("creating snippet").
func Remote(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrRemote,
		Message: fmt.Sprintf("%s: %v", op, cause),
		Cause:   cause,
	}
}

// FromCode rebuilds an AppError from the machine-readable code of an API
// error response. Unknown codes become remote failures.
func FromCode(code, message string) *AppError {
	var sentinel error
	switch code {
	case "not_found":
		sentinel = ErrNotFound
	case "validation_error":
		sentinel = ErrValidation
	case "conflict":
		sentinel = ErrConflict
	case "forbidden":
		sentinel = ErrForbidden
	case "unauthorized":
		sentinel = ErrUnauthorized
	default:
		sentinel = ErrRemote
	}
	return &AppError{Err: sentinel, Message: message}
}

// Code is the inverse of FromCode.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal_error"
	}
}
