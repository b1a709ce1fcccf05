package mock

import (
	"io"
	"strings"
	"sync"

	"github.com/fwojciec/trickle"
)

// Interface compliance checks.
var (
	_ trickle.Stream = (*Stream)(nil)
	_ io.ReadCloser  = (*Body)(nil)
)

// Stream is a test double for trickle.Stream.
// Set the function fields for the methods you need. NextFn panics when nil
// to catch missing setup. CloseFn, StatusFn and TextFn are nil-safe (no-op
// and zero value) because test code commonly calls defer stream.Close() and
// these methods rarely need custom behavior.
type Stream struct {
	NextFn   func() (trickle.Update, error)
	StatusFn func() trickle.Status
	TextFn   func() string
	CloseFn  func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (trickle.Update, error) {
	return s.NextFn()
}

// Status delegates to StatusFn. Returns StatusActive when StatusFn is nil.
func (s *Stream) Status() trickle.Status {
	if s.StatusFn == nil {
		return trickle.StatusActive
	}
	return s.StatusFn()
}

// Text delegates to TextFn. Returns "" when TextFn is nil.
func (s *Stream) Text() string {
	if s.TextFn == nil {
		return ""
	}
	return s.TextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Deltas returns a Stream that yields each delta in turn and then ends with
// err, or io.EOF when err is nil. Text and Status track what was yielded.
func Deltas(err error, deltas ...string) *Stream {
	var (
		mu     sync.Mutex
		i      int
		text   strings.Builder
		status = trickle.StatusActive
	)
	if err == nil {
		err = io.EOF
	}
	return &Stream{
		NextFn: func() (trickle.Update, error) {
			mu.Lock()
			defer mu.Unlock()
			if i >= len(deltas) {
				if err == io.EOF {
					status = trickle.StatusCompleted
				} else {
					status = trickle.StatusFailed
				}
				return trickle.Update{}, err
			}
			d := deltas[i]
			i++
			text.WriteString(d)
			return trickle.Update{Delta: d, Text: text.String()}, nil
		},
		StatusFn: func() trickle.Status {
			mu.Lock()
			defer mu.Unlock()
			return status
		},
		TextFn: func() string {
			mu.Lock()
			defer mu.Unlock()
			return text.String()
		},
	}
}

// Body is a response body double that returns Chunks one per Read, then Err
// (io.EOF when nil). Zero-length chunks are returned as empty reads.
type Body struct {
	Chunks  []string
	Err     error
	CloseFn func() error

	mu     sync.Mutex
	closed bool
	reads  int
}

// Read returns the next chunk. Once closed it returns io.ErrClosedPipe.
func (b *Body) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	if b.reads >= len(b.Chunks) {
		if b.Err != nil {
			return 0, b.Err
		}
		return 0, io.EOF
	}
	chunk := b.Chunks[b.reads]
	n := copy(p, chunk)
	if n < len(chunk) {
		b.Chunks[b.reads] = chunk[n:]
	} else {
		b.reads++
	}
	return n, nil
}

// Close marks the body closed and delegates to CloseFn when set.
func (b *Body) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	if b.CloseFn != nil {
		return b.CloseFn()
	}
	return nil
}

// Closed reports whether Close was called.
func (b *Body) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Reads reports how many chunks have been fully consumed.
func (b *Body) Reads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reads
}
