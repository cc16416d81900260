package api

import (
	"errors"
	"fmt"
)

// Kind classifies a request failure. Callers branch on kinds, never on
// error message text.
type Kind int

const (
	// KindTransport means the backend could not be reached at all.
	KindTransport Kind = iota + 1

	// KindTimeout means the request exceeded the client's fixed timeout.
	KindTimeout

	// KindUnauthorized means the backend rejected the bearer credential (401).
	KindUnauthorized

	// KindForbidden means the credential is valid but lacks access (403).
	KindForbidden

	// KindNotFound means the requested resource does not exist (404).
	KindNotFound

	// KindValidation means the backend rejected the request with a
	// structured message (other 4xx).
	KindValidation

	// KindServer means the backend failed internally (5xx).
	KindServer

	// KindDecode means the response body could not be decoded.
	KindDecode
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error represents a failed backend request.
type Error struct {
	// Op is the operation that failed (e.g., "login", "loadEmails")
	Op string

	// Path is the request path
	Path string

	// Kind classifies the failure
	Kind Kind

	// Status is the HTTP status code, if a response was received
	Status int

	// Message is the backend's structured error detail, if any.
	// It is safe to surface verbatim to the user.
	Message string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s: %s (%s)", e.Op, e.Path, e.Message, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("api %s %s: %v (%s)", e.Op, e.Path, e.Err, e.Kind)
	}
	return fmt.Sprintf("api %s %s: %s", e.Op, e.Path, e.Kind)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err if it is (or wraps) an *Error, and 0 otherwise.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsUnauthorized reports whether err is a credential rejection.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// IsTransient reports whether err is a transport or timeout failure, i.e.
// the request may succeed if retried and nothing can be concluded about
// the credential's validity.
func IsTransient(err error) bool {
	k := KindOf(err)
	return k == KindTransport || k == KindTimeout
}

// Detail returns the backend's structured message for err, or the empty
// string if err carries none.
func Detail(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
