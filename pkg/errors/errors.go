package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors covering the failure taxonomy.
var (
	ErrNotFound      = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden     = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized  = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict      = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation    = New("VALIDATION_ERROR", http.StatusUnprocessableEntity, "validation failed")
	ErrSchemaMissing = New("SCHEMA_NOT_INITIALIZED", http.StatusServiceUnavailable, "database schema not initialized")
	ErrInternal      = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Postgres SQLSTATE codes the API cares about.
const (
	pgUndefinedTable  = "42P01"
	pgUniqueViolation = "23505"
)

// FromDB maps a database failure to the taxonomy: an undefined table means
// the schema was never initialized (503), a unique violation is a conflict,
// everything else is internal. When verbose is true the underlying reason is
// appended to the message; production callers must pass false.
func FromDB(err error, verbose bool) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUndefinedTable:
			return Wrap(err, ErrSchemaMissing.Code, ErrSchemaMissing.Status,
				"database schema not initialized, run the SQL migrations")
		case pgUniqueViolation:
			return Wrap(err, ErrConflict.Code, ErrConflict.Status, "conflicting record already exists")
		}
	}

	message := "database error"
	if verbose {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}
