// Package apperr defines the error kinds the API reports and their HTTP mapping.
package apperr

import (
	stderrors "errors"
	"net/http"

	"github.com/pkg/errors"
)

// Kind is the category of a failure as seen by API clients.
type Kind string

const (
	KindValidation  Kind = "VALIDATION"
	KindConflict    Kind = "CONFLICT"
	KindAuthInvalid Kind = "AUTH_INVALID"
	KindForbidden   Kind = "AUTH_FORBIDDEN"
	KindNotFound    Kind = "NOT_FOUND"
	KindInternal    Kind = "INTERNAL"
)

// Error is an error with a client facing message and status.
type Error struct {
	kind    Kind
	status  int
	message string
	cause   error
}

func newError(kind Kind, status int, message string) *Error {
	return &Error{kind: kind, status: status, message: message}
}

// Validation reports a missing or malformed input (400).
func Validation(message string) *Error {
	return newError(KindValidation, http.StatusBadRequest, message)
}

// Conflict reports a uniqueness violation (400).
func Conflict(message string) *Error {
	return newError(KindConflict, http.StatusBadRequest, message)
}

// Unauthorized reports bad credentials or a missing token (401).
func Unauthorized(message string) *Error {
	return newError(KindAuthInvalid, http.StatusUnauthorized, message)
}

// InvalidToken reports a malformed, expired or wrongly signed token (403).
func InvalidToken(message string) *Error {
	return newError(KindAuthInvalid, http.StatusForbidden, message)
}

// Forbidden reports an authenticated caller lacking ownership or role (403).
func Forbidden(message string) *Error {
	return newError(KindForbidden, http.StatusForbidden, message)
}

// NotFound reports a missing resource (404).
func NotFound(message string) *Error {
	return newError(KindNotFound, http.StatusNotFound, message)
}

// Internal wraps an unexpected failure (500). The message is passed through.
func Internal(err error) *Error {
	if err == nil {
		err = stderrors.New("internal error")
	}
	return &Error{kind: KindInternal, status: http.StatusInternalServerError, message: err.Error(), cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil && e.cause.Error() != e.message {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) HTTPCode() int { return e.status }

func (e *Error) Message() string { return e.message }

// WithCause attaches the underlying error without changing the client message.
func (e *Error) WithCause(err error) *Error {
	return &Error{kind: e.kind, status: e.status, message: e.message, cause: errors.WithStack(err)}
}

// From returns the *Error in err's chain, or wraps err as INTERNAL.
func From(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return stderrors.As(err, &appErr) && appErr.kind == kind
}
