// Package apperror defines the application's error taxonomy.
//
// Every failure a core operation can report is an *AppError wrapping one of
// the sentinel errors below. The HTTP layer maps sentinels to status codes
// with errors.Is, so services and repositories never mention HTTP.
//
//	ErrValidation      → 400
//	ErrAlreadyVerified → 400
//	ErrUnauthorized    → 401
//	ErrForbidden       → 403
//	ErrNotFound        → 404
//	ErrConflict        → 409
//	ErrTooLarge        → 413
//	anything else      → 500
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("Validation Error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrAlreadyVerified = errors.New("already verified")
	ErrTooLarge        = errors.New("payload too large")
)

// FieldError describes one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Err     error        // actual error
	Message string       // Human-readable error message
	Field   string       // Optional: first field causing the error
	Fields  []FieldError // Optional: every offending field (validation only)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage returns a NotFound error with a caller-chosen message.
// Used where the lookup key is a secret (e.g. a verification token) and
// must not be echoed back.
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

// Invalid builds a validation error from a list of field failures.
// The first failure's message becomes the top-level message.
func Invalid(fields []FieldError) *AppError {
	if len(fields) == 0 {
		return &AppError{Err: ErrValidation, Message: "invalid request"}
	}
	return &AppError{
		Err:     ErrValidation,
		Message: fields[0].Message,
		Field:   fields[0].Field,
		Fields:  fields,
	}
}

// ConflictMessage returns a Conflict error with a caller-chosen message.
func ConflictMessage(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized returns an AppError for missing, invalid, expired or revoked
// credentials. HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
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

// AlreadyVerified is returned when a verification email is requested for an
// account that has already completed verification.
func AlreadyVerified() *AppError {
	return &AppError{
		Err:     ErrAlreadyVerified,
		Message: "Verification has already been passed",
	}
}

// TooLarge is returned when a request body exceeds its size limit.
func TooLarge(message string) *AppError {
	return &AppError{
		Err:     ErrTooLarge,
		Message: message,
	}
}
