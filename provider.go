package trickle

import "context"

// Provider is a strategy pattern interface for LLM providers.
//
// Stream sends req and returns a Stream over the response body. A non-success
// HTTP status is reported here as a *RequestRejectedError, before any body is
// read. Cancelling ctx closes the returned Stream.
//
// Request is passed by value, but its Messages slice shares the caller's
// backing array; providers must not modify existing elements.
type Provider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}
