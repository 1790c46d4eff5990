// Package apperr defines the error kinds shared by the services. Services wrap these sentinels with
// context (fmt.Errorf("%w: ...")) and the transport layer maps them to status codes with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrBadRequest covers malformed input, duplicate registration and wrong current password.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthenticated is returned when no valid caller is present in the request context.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned for policy rejections (self-action, role hierarchy).
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned for a missing identity, profile or reset request.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when a workflow transition is attempted from the wrong state.
	ErrInvalidState = errors.New("invalid state")
)

// BadRequest wraps ErrBadRequest with a message.
func BadRequest(format string, args ...any) error {
	return wrap(ErrBadRequest, format, args...)
}

// Forbidden wraps ErrForbidden with a message.
func Forbidden(format string, args ...any) error {
	return wrap(ErrForbidden, format, args...)
}

// NotFound wraps ErrNotFound with a message.
func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

// InvalidState wraps ErrInvalidState with a message.
func InvalidState(format string, args ...any) error {
	return wrap(ErrInvalidState, format, args...)
}

// Unauthenticated wraps ErrUnauthenticated with a message.
func Unauthenticated(format string, args ...any) error {
	return wrap(ErrUnauthenticated, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Message returns the text after the kind prefix, e.g. "ADMIN can assign only USER or SUPPORT"
// for Forbidden("ADMIN can assign only USER or SUPPORT"). Used for audit reasons and client messages.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, kind := range []error{ErrBadRequest, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrInvalidState} {
		prefix := kind.Error() + ": "
		if errors.Is(err, kind) && len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
