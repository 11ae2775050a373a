// Package apperr defines the error kinds shared by the stores, services and
// HTTP handlers. Handlers never pick status codes themselves; they return an
// *Error and the boundary in httputil maps its Kind to a response.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	Internal Kind = iota
	Validation
	DuplicateEmail
	NotFound
	InvalidCredentials
	Unauthorized
	Forbidden
	Upstream
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case DuplicateEmail:
		return "duplicate_email"
	case NotFound:
		return "not_found"
	case InvalidCredentials:
		return "invalid_credentials"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Upstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error carries a kind, a user-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error without a cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns an *Error that keeps err as its cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case Validation, DuplicateEmail:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case InvalidCredentials, Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
