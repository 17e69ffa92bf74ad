// Package errkind defines the closed set of failure categories surfaced to
// callers of the investor data layer, as opposed to raw transport errors.
package errkind

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind is a category of failure.
type Kind int

const (
	Unknown Kind = iota
	InvalidRequest
	Unauthorized
	Forbidden
	NotFound
	ServerError
	HTTPError
	NetworkUnreachable
	Timeout
	DecodingError
	StorageError
	NoAuthToken
	Canceled
)

var kindNames = map[Kind]string{
	Unknown:            "unknown",
	InvalidRequest:     "invalid_request",
	Unauthorized:       "unauthorized",
	Forbidden:          "forbidden",
	NotFound:           "not_found",
	ServerError:        "server_error",
	HTTPError:          "http_error",
	NetworkUnreachable: "network_unreachable",
	Timeout:            "timeout",
	DecodingError:      "decoding_error",
	StorageError:       "storage_error",
	NoAuthToken:        "no_auth_token",
	Canceled:           "canceled",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a categorised failure. Code carries the HTTP status for
// ServerError and HTTPError, Message the server supplied reason where one exists.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

// New creates an Error of the given kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind wrapping err.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.describe()
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) describe() string {
	switch e.Kind {
	case InvalidRequest:
		return "bad request: " + e.Message
	case ServerError:
		return fmt.Sprintf("server error (%d)", e.Code)
	case HTTPError:
		return fmt.Sprintf("http error (%d)", e.Code)
	case NotFound:
		if e.Message == "" {
			return "not found"
		}
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind. This lets callers
// write errors.Is(err, errkind.New(errkind.Timeout, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether an explicit user retry can reasonably succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case NetworkUnreachable, Timeout, ServerError:
		return true
	}
	return false
}

// RequiresReauth reports whether the caller must sign in again.
func (e *Error) RequiresReauth() bool {
	return e.Kind == Unauthorized || e.Kind == NoAuthToken
}

// IsSubscriptionLimit reports whether the server refused access because the
// subscription tier or monthly view limit does not allow it.
func (e *Error) IsSubscriptionLimit() bool {
	return e.Kind == Forbidden
}

// FromStatus maps a non-2xx HTTP status code and the server supplied message
// onto the taxonomy. It returns nil for 2xx codes.
func FromStatus(code int, message string) *Error {
	switch {
	case code >= 200 && code <= 299:
		return nil
	case code == http.StatusBadRequest:
		if message == "" {
			message = "Invalid request"
		}
		return &Error{Kind: InvalidRequest, Code: code, Message: message}
	case code == http.StatusUnauthorized:
		return &Error{Kind: Unauthorized, Code: code, Message: "Authentication failed. Please sign in again."}
	case code == http.StatusForbidden:
		if message == "" {
			message = "Access forbidden"
		}
		return &Error{Kind: Forbidden, Code: code, Message: message}
	case code == http.StatusNotFound:
		return &Error{Kind: NotFound, Code: code}
	case code >= 500 && code <= 599:
		return &Error{Kind: ServerError, Code: code}
	default:
		return &Error{Kind: HTTPError, Code: code}
	}
}

// From converts any error into an *Error. Errors that already carry a kind are
// returned as is; context and network errors are classified, everything else
// becomes Unknown.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(Timeout, err, "request timed out")
	case errors.Is(err, context.Canceled):
		return Wrap(Canceled, err, "request canceled")
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Wrap(Timeout, err, "request timed out")
		}
		return Wrap(NetworkUnreachable, err, "network unreachable")
	}
	return Wrap(Unknown, err, "unexpected error")
}

// KindOf returns the Kind of err, or Unknown when err is nil.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	return From(err).Kind
}
