// Package apperr defines the error taxonomy shared across the service and
// its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for surfacing to callers.
type Kind int

const (
	// KindUnexpected covers anything not otherwise classified.
	KindUnexpected Kind = iota

	// KindValidation marks malformed or missing input. Never retried.
	KindValidation

	// KindNotFound marks a reference to a call that has no metadata object.
	KindNotFound

	// KindExternal marks a failed LLM or storage call.
	KindExternal
)

// Error carries a kind, a human-readable message, and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validationf builds a validation error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// External wraps a failed LLM or storage call.
func External(msg string, err error) *Error {
	return &Error{Kind: KindExternal, Msg: msg, Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// HTTPStatus maps an error to the status code the front door returns.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
