package http

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/trickle"
)

// ErrStalled is returned by a StallReader whose source went quiet for longer
// than its timeout. It wraps trickle.ErrCancelled: a stall ends the stream
// the same way a caller cancellation does.
var ErrStalled = fmt.Errorf("http: stream stalled: %w", trickle.ErrCancelled)

// StallReader closes the wrapped body when a single Read stays blocked for
// longer than the timeout, which unblocks it. Time spent between reads is
// not counted.
type StallReader struct {
	rc      io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	stalled atomic.Bool
	once    sync.Once
	err     error
}

// Interface compliance check.
var _ io.ReadCloser = (*StallReader)(nil)

// NewStallReader wraps rc. The timer is armed by each Read.
func NewStallReader(rc io.ReadCloser, timeout time.Duration) *StallReader {
	s := &StallReader{rc: rc, timeout: timeout}
	s.timer = time.AfterFunc(timeout, s.stall)
	s.timer.Stop()
	return s
}

func (s *StallReader) stall() {
	s.stalled.Store(true)
	_ = s.closeBody()
}

// Read reads from the wrapped body with the timer running.
func (s *StallReader) Read(p []byte) (int, error) {
	if s.stalled.Load() {
		return 0, ErrStalled
	}
	s.timer.Reset(s.timeout)
	n, err := s.rc.Read(p)
	s.timer.Stop()
	if s.stalled.Load() {
		return n, ErrStalled
	}
	return n, err
}

// Close stops the timer and closes the wrapped body.
func (s *StallReader) Close() error {
	s.timer.Stop()
	return s.closeBody()
}

func (s *StallReader) closeBody() error {
	s.once.Do(func() {
		s.err = s.rc.Close()
	})
	return s.err
}

// Stalled reports whether the timeout fired.
func (s *StallReader) Stalled() bool {
	return s.stalled.Load()
}

// WithStall wraps rc in a StallReader when timeout is positive and returns rc
// unchanged otherwise.
func WithStall(rc io.ReadCloser, timeout time.Duration) io.ReadCloser {
	if timeout <= 0 {
		return rc
	}
	return NewStallReader(rc, timeout)
}
