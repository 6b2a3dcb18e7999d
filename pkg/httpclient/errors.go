package httpclient

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an upstream failure. Only KindInternal failures (and raw
// transport errors) are retried; everything else is definitive.
type Kind string

const (
	KindInvalidRequest Kind = "invalid_request"
	KindAuthFailed     Kind = "auth_failed"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindRateLimited    Kind = "rate_limited"
	KindTimeout        Kind = "timeout"
	KindInternal       Kind = "internal"
	KindValidation     Kind = "validation"
)

// Error is a classified upstream API failure.
type Error struct {
	Kind    Kind
	Message string
	// Status is the upstream HTTP status, when one was received.
	Status int
	// RetryAfter is the provider-suggested delay for rate-limited failures.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds a classified error.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from err. Unclassified errors
// (transport failures and the like) report KindInternal.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}

// IsRetryable reports whether err may be retried: transport errors and
// transient upstream failures are, definitive classifications are not.
func IsRetryable(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return true
	}
	return apiErr.Kind == KindInternal || apiErr.Kind == KindRateLimited
}
