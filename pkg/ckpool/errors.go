package ckpool

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrTransport indicates the request failed before a status line was received.
	ErrTransport = errors.New("transport failure")

	// ErrInvalidEndpoint indicates the request target could not be constructed.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrUserNotFound indicates the pool has no statistics for the identifier.
	ErrUserNotFound = errors.New("user not found")

	// ErrDecode indicates the response body did not match the expected schema.
	ErrDecode = errors.New("decode failure")

	// ErrUpstream indicates a non-2xx response other than not found.
	ErrUpstream = errors.New("upstream error")

	// ErrMissingField indicates a required JSON field was absent or null.
	ErrMissingField = errors.New("missing required field")
)

// TransportError wraps a connection, DNS, TLS or timeout failure.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ckpool request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// EndpointError reports a base URL or identifier that cannot form a request target.
type EndpointError struct {
	Base       string
	Identifier string
	Err        error
}

func (e *EndpointError) Error() string {
	if e.Identifier != "" {
		return fmt.Sprintf("invalid ckpool endpoint for %q on %s: %v", e.Identifier, e.Base, e.Err)
	}
	return fmt.Sprintf("invalid ckpool base URL %q: %v", e.Base, e.Err)
}

func (e *EndpointError) Unwrap() error { return e.Err }

func (e *EndpointError) Is(target error) bool { return target == ErrInvalidEndpoint }

// NotFoundError is returned when the pool answers 404 for a user path.
type NotFoundError struct {
	Identifier string
	Endpoint   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user not found: %s", e.Identifier)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrUserNotFound }

// DecodeError reports a body or field that violated the stats schema.
// Field is empty when the document itself is malformed.
type DecodeError struct {
	Field string
	Raw   string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Field == "":
		return fmt.Sprintf("decode user stats: %v", e.Err)
	case e.Raw != "":
		return fmt.Sprintf("decode user stats: field %s (%q): %v", e.Field, e.Raw, e.Err)
	default:
		return fmt.Sprintf("decode user stats: field %s: %v", e.Field, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// UpstreamError represents a non-2xx response from the pool API.
type UpstreamError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ckpool API error (HTTP %d) at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("ckpool API error (HTTP %d) at %s", e.StatusCode, e.Endpoint)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// IsServerError returns true for 5xx responses.
func (e *UpstreamError) IsServerError() bool {
	return e.StatusCode >= 500
}

// ErrorKind is the closed set of failures a Client call can produce.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransport
	KindInvalidEndpoint
	KindUserNotFound
	KindDecode
	KindUpstream
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindTransport:
		return "transport"
	case KindInvalidEndpoint:
		return "invalid_endpoint"
	case KindUserNotFound:
		return "user_not_found"
	case KindDecode:
		return "decode"
	case KindUpstream:
		return "upstream"
	}
	return "unknown"
}

// KindOf classifies err into the client error taxonomy.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUserNotFound):
		return KindUserNotFound
	case errors.Is(err, ErrInvalidEndpoint):
		return KindInvalidEndpoint
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	case errors.Is(err, ErrTransport):
		return KindTransport
	}
	return KindUnknown
}

// IsUserNotFound returns true if the account has never mined on the pool.
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsRetryable returns true if the same call may succeed later.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransport, KindUpstream:
		return true
	}
	return false
}

// maxErrorBody bounds how much of a failed response is kept in UpstreamError.
const maxErrorBody = 512

// classifyResponse maps a non-2xx status to NotFoundError or UpstreamError.
// 404 is checked before any generic status handling.
func classifyResponse(resp *http.Response, identifier, endpoint string) error {
	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{Identifier: identifier, Endpoint: endpoint}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &UpstreamError{
		StatusCode: resp.StatusCode,
		Endpoint:   endpoint,
		Message:    strings.TrimSpace(string(body)),
	}
}
