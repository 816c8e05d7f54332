package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrPageOutOfRange is wrapped by the ValidationError returned for a page
	// request outside [1, totalPages].
	ErrPageOutOfRange = errors.New("page out of range")

	ErrNotFound = errors.New("not found")

	// ErrInvalidPageResult marks a page payload that violates the paging invariants.
	ErrInvalidPageResult = errors.New("invalid page result")

	ErrCircuitOpen = errors.New("metrics api unavailable: circuit breaker open")
)

// ValidationError is a locally rejected request. No network call is made.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError is a network failure or a non-2xx response from the metrics API.
// Detail carries the server-provided message verbatim when one was returned.
type TransportError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Detail != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport error"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient: a network error or
// one of the throttling/server-side status codes.
func (e *TransportError) Retryable() bool {
	if errors.Is(e.Err, ErrCircuitOpen) {
		return false
	}
	switch e.StatusCode {
	case 0:
		return e.Err != nil
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// UserMessage returns the text to show for err: the server detail when a
// TransportError carries one, the validation reason for local rejections,
// and fallback otherwise.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var te *TransportError
	if errors.As(err, &te) {
		if te.Detail != "" {
			return te.Detail
		}
		if te.StatusCode > 0 {
			return fmt.Sprintf("%s with status: %d", fallback, te.StatusCode)
		}
		return fallback
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return fallback
}
