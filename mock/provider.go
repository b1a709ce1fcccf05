// Package mock provides test doubles for trickle interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/trickle"
)

// Interface compliance checks.
var (
	_ trickle.Provider = (*Provider)(nil)
	_ trickle.Observer = (*Observer)(nil)
)

// Provider is a test double for trickle.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req trickle.Request) (trickle.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req trickle.Request) (trickle.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Observer is a test double for trickle.Observer. Every field is optional;
// unset methods are no-ops.
type Observer struct {
	ObserveChunkFn     func(n int)
	ObserveDeltaFn     func(text string)
	ObserveMalformedFn func(err error)
	ObserveEndFn       func(status trickle.Status, err error)
}

// ObserveChunk delegates to ObserveChunkFn.
func (o *Observer) ObserveChunk(n int) {
	if o.ObserveChunkFn != nil {
		o.ObserveChunkFn(n)
	}
}

// ObserveDelta delegates to ObserveDeltaFn.
func (o *Observer) ObserveDelta(text string) {
	if o.ObserveDeltaFn != nil {
		o.ObserveDeltaFn(text)
	}
}

// ObserveMalformed delegates to ObserveMalformedFn.
func (o *Observer) ObserveMalformed(err error) {
	if o.ObserveMalformedFn != nil {
		o.ObserveMalformedFn(err)
	}
}

// ObserveEnd delegates to ObserveEndFn.
func (o *Observer) ObserveEnd(status trickle.Status, err error) {
	if o.ObserveEndFn != nil {
		o.ObserveEndFn(status, err)
	}
}
