package trickle

import (
	"io"
	"iter"
)

// Status indicates where a stream is in its lifecycle.
type Status int

const (
	StatusActive    Status = iota // Reading; the only non-terminal status.
	StatusCompleted               // Stream closed cleanly or sent a terminal marker.
	StatusFailed                  // Transport error or caller cancellation.
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Update is a single partial-result notification. Text is always the full
// reply accumulated so far, Delta the piece that was just appended.
type Update struct {
	Delta string
	Text  string
}

// Stream uses a pull-based iterator pattern over one in-flight response.
//
// Next returns the next Update, io.EOF once the stream has completed, or a
// *StreamError once it has failed. After a terminal result every further
// call returns the same result.
//
// Text returns the reply accumulated so far. It is still valid after a
// failure, so callers can render what arrived before the break.
//
// Close releases the underlying byte stream. It may be called from another
// goroutine to cancel a blocked Next; the stream then fails with
// ErrCancelled. Close is idempotent.
type Stream interface {
	Next() (Update, error)
	Status() Status
	Text() string
	Close() error
}

// Updates adapts a Stream to a range-over-func sequence. Iteration stops
// after the first error, which is yielded with the zero Update. A clean end
// of stream yields nothing further.
func Updates(s Stream) iter.Seq2[Update, error] {
	return func(yield func(Update, error) bool) {
		for {
			u, err := s.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Update{}, err)
				return
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}
