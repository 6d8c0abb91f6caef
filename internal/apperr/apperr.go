// Package apperr classifies business failures so transports can map them to
// responses without inspecting error text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindInsufficientStock
	KindInvalidState
	KindAccessDenied
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindInvalidState:
		return "invalid_state"
	case KindAccessDenied:
		return "access_denied"
	default:
		return "internal"
	}
}

// Error carries a Kind and a message that is safe to show to the caller.
// Err, when set, holds the underlying cause for diagnostics.
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

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...any) error {
	return newError(KindInvalidArgument, format, args...)
}

func NotFound(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

func InsufficientStock(format string, args ...any) error {
	return newError(KindInsufficientStock, format, args...)
}

func InvalidState(format string, args ...any) error {
	return newError(KindInvalidState, format, args...)
}

func AccessDenied(format string, args ...any) error {
	return newError(KindAccessDenied, format, args...)
}

// Internal wraps an unexpected failure. The message is what callers see,
// the cause is kept for logs and non-production responses.
func Internal(err error, message string) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the kind of err. Errors that were never classified are
// internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}

// HTTPStatus maps err to a status code. AccessDenied is reported as 404 so
// that a caller cannot probe for resources it does not own.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument, KindInsufficientStock, KindInvalidState:
		return http.StatusBadRequest
	case KindNotFound, KindAccessDenied:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
