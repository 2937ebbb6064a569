package domain

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the auth core can return. Handlers map
// kinds to HTTP status codes; services never leak raw storage or network
// errors past their boundary.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindBadRequest          Kind = "bad_request"
	KindConflict            Kind = "conflict"
	KindUnauthorized        Kind = "unauthorized"
	KindInvalid             Kind = "invalid"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindDeliveryFailed      Kind = "delivery_failed"
)

// Error carries a stable kind plus a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// E builds a typed domain error.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Ef builds a typed domain error with a formatted message.
func Ef(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, unwrapping as needed. Errors that
// did not originate in this package report an empty kind.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
