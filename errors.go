package trickle

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrRequestRejected indicates the server answered with a non-success
	// status before any streaming began. No partial text exists.
	ErrRequestRejected = errors.New("request rejected")

	// ErrTransport indicates the byte stream failed mid-response, either on a
	// read or through a record in which the provider reports a failure.
	ErrTransport = errors.New("transport failure")

	// ErrCancelled indicates the caller abandoned the stream. It is a clean
	// partial stop rather than an error worth displaying.
	ErrCancelled = errors.New("stream cancelled")

	// ErrMalformedRecord indicates a single frame could not be parsed. It is
	// recovered at the frame boundary and never returned from a Stream.
	ErrMalformedRecord = errors.New("malformed record")
)

// RequestRejectedError reports a non-success HTTP response received before
// the body was streamed.
type RequestRejectedError struct {
	StatusCode int
	Status     string
	Message    string // provider's error message, or the raw body
}

func (e *RequestRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("request rejected: HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap makes errors.Is(err, ErrRequestRejected) true.
func (e *RequestRejectedError) Unwrap() error {
	return ErrRequestRejected
}

// StreamError is the failure outcome of a stream. Kind is ErrTransport or
// ErrCancelled; Err is the underlying cause. Partial holds the reply
// accumulated before the failure.
type StreamError struct {
	Kind    error
	Err     error
	Partial string
}

func (e *StreamError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *StreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsCancelled reports whether err is a caller-initiated stop, either through
// Close or through context cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
