// Package apperr defines the error kinds surfaced at TalkTo's boundary and
// their mapping to HTTP status codes and the wire body {"detail": "..."}.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a domain failure.
type Kind string

const (
	Validation     Kind = "validation"
	Unauthenticated Kind = "unauthenticated"
	Forbidden      Kind = "forbidden"
	NotFound       Kind = "not_found"
	Conflict       Kind = "conflict"
	RateLimited    Kind = "rate_limited"
	Internal       Kind = "internal"
)

// Error is a typed domain error carrying a Kind and a user-facing message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func NewValidation(msg string) *Error      { return New(Validation, msg) }
func NewUnauthenticated(msg string) *Error { return New(Unauthenticated, msg) }
func NewForbidden(msg string) *Error       { return New(Forbidden, msg) }
func NewNotFound(msg string) *Error        { return New(NotFound, msg) }
func NewConflict(msg string) *Error        { return New(Conflict, msg) }
func NewRateLimited(msg string) *Error     { return New(RateLimited, msg) }
func NewInternal(msg string, err error) *Error { return Wrap(Internal, msg, err) }

// Status maps an error to its HTTP status code, defaulting to 500 when the
// error is not a *Error.
func Status(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case Validation:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the user-facing message for the {"detail": "..."} body.
func Detail(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Msg
	}
	return "internal error"
}
