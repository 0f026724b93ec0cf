// Package apperr defines the application error taxonomy. Handlers and
// stores return tagged errors; message text is presentation only, the
// Kind is the error's identity.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindUnavailable
)

// Error carries a kind, a human readable message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a tagged error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a tagged error preserving the underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// BadRequest reports missing or invalid caller input.
func BadRequest(message string) *Error { return New(KindBadRequest, message) }

// Unauthorized reports a missing, invalid, or expired credential.
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

// Forbidden reports an authenticated caller lacking ownership.
func Forbidden(message string) *Error { return New(KindForbidden, message) }

// NotFound reports a missing referenced resource.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Conflict reports a uniqueness violation such as a taken username.
func Conflict(message string) *Error { return New(KindConflict, message) }

// Unavailable reports a storage or backing-service failure.
func Unavailable(message string, err error) *Error {
	return Wrap(KindUnavailable, message, err)
}

// KindOf extracts the kind from an error chain, KindUnknown when untagged.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// MessageOf extracts the presentation message, empty when untagged.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
