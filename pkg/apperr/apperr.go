package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error so handlers can map it to an HTTP
// status without inspecting message strings.
type Kind int

const (
	// Unauthenticated means no identity could be resolved for the request.
	Unauthenticated Kind = iota
	// Forbidden means the identity is resolved but the guard condition fails.
	Forbidden
	// InvalidTransition means the current status does not permit the action.
	InvalidTransition
	// AlreadyProcessed means an idempotency guard rejected a repeated action.
	AlreadyProcessed
	// ValidationFailed means the input is malformed or incomplete.
	ValidationFailed
	// NotFound means a referenced entity does not exist.
	NotFound
	// DependencyFailure means a storage or database call itself failed.
	DependencyFailure
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case InvalidTransition:
		return "invalid_transition"
	case AlreadyProcessed:
		return "already_processed"
	case ValidationFailed:
		return "validation_failed"
	case NotFound:
		return "not_found"
	case DependencyFailure:
		return "dependency_failure"
	}
	return "unknown"
}

// HTTPStatus maps an error kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case InvalidTransition, ValidationFailed:
		return http.StatusBadRequest
	case AlreadyProcessed:
		return http.StatusGone
	case NotFound:
		return http.StatusNotFound
	case DependencyFailure:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Error is an application error with a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an application error with the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an application error wrapping an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind of err, or DependencyFailure for unknown errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return DependencyFailure
}

// MessageOf extracts the message of err, or a generic fallback.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
