// Package apperr defines the error taxonomy shared by the API handlers and
// the translation of each kind to an HTTP status.
package apperr

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
)

// Kind classifies an error for translation at the HTTP boundary
type Kind int

const (
	KindInternal        Kind = iota // Unexpected failure, 500
	KindValidation                  // Missing or malformed input, 400
	KindUnauthorized                // Missing, invalid or expired token, 401
	KindForbidden                   // Valid token, insufficient role, 403
	KindNotFound                    // Referenced entity absent, 404
	KindTooManyRequests             // Throttled, 429
)

// Error is an error with a kind and a client-safe message
type Error struct {
	Kind    Kind   // Classification
	Message string // Message returned to the client
	Err     error  // Underlying cause, never returned to the client
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status code
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Validation returns a 400 error
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// Unauthorized returns a 401 error
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

// Forbidden returns a 403 error
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// NotFound returns a 404 error
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// TooManyRequests returns a 429 error
func TooManyRequests(msg string) *Error { return &Error{Kind: KindTooManyRequests, Message: msg} }

// Internal wraps an unexpected failure; msg is logged, the client sees a generic message
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// As extracts an *Error from err; anything else is treated as internal
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("unexpected error", err)
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
