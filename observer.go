package trickle

// Observer receives accumulator lifecycle signals. Implementations must be
// safe for concurrent use when shared between sessions.
type Observer interface {
	// ObserveChunk is called for every non-empty read with its byte count.
	ObserveChunk(n int)
	// ObserveDelta is called for every appended text delta.
	ObserveDelta(text string)
	// ObserveMalformed is called for every dropped frame.
	ObserveMalformed(err error)
	// ObserveEnd is called exactly once with the terminal status. err is nil
	// when status is StatusCompleted.
	ObserveEnd(status Status, err error)
}

// NopObserver discards all signals.
type NopObserver struct{}

func (NopObserver) ObserveChunk(int) {}
func (NopObserver) ObserveDelta(string) {}
func (NopObserver) ObserveMalformed(error) {}
func (NopObserver) ObserveEnd(Status, error) {}

var _ Observer = NopObserver{}
