package trickle

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
)

// DefaultReadSize is the buffer size used for each read from the body.
const DefaultReadSize = 4096

// maxLoggedPayload bounds how much of a dropped frame is written to the log.
const maxLoggedPayload = 256

// Accumulator implements [Stream] over a raw response body. It decodes bytes
// into text, splits the text into frames with a [Framer], turns every frame
// into a [Record] with a [Parser], and appends text deltas to the reply.
//
// Next, Status and Text may be called from one goroutine while Close is
// called from another.
type Accumulator struct {
	body     io.ReadCloser
	framer   Framer
	parser   Parser
	decoder  *Decoder
	logger   zerolog.Logger
	observer Observer
	encoding encoding.Encoding
	readSize int

	buf     []byte
	carry   string
	pending []Frame
	readErr error
	eof     bool
	result  error // io.EOF or *StreamError once terminal

	mu   sync.Mutex
	text string

	status    atomic.Int32
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Interface compliance check.
var _ Stream = (*Accumulator)(nil)

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithLogger sets the logger used for dropped and empty records.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Accumulator) {
		a.logger = l
	}
}

// WithObserver sets the observer notified of reads, deltas and the outcome.
func WithObserver(o Observer) Option {
	return func(a *Accumulator) {
		if o != nil {
			a.observer = o
		}
	}
}

// WithReadSize sets the size of the read buffer. Values below 1 are ignored.
func WithReadSize(n int) Option {
	return func(a *Accumulator) {
		if n > 0 {
			a.readSize = n
		}
	}
}

// WithEncoding sets the character encoding of the body. The default is UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(a *Accumulator) {
		a.encoding = enc
	}
}

// NewAccumulator returns an active Accumulator reading from body. The
// Accumulator owns body and closes it when the stream reaches a terminal
// status or Close is called.
func NewAccumulator(body io.ReadCloser, framer Framer, parser Parser, opts ...Option) *Accumulator {
	a := &Accumulator{
		body:     body,
		framer:   framer,
		parser:   parser,
		logger:   zerolog.Nop(),
		observer: NopObserver{},
		readSize: DefaultReadSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.decoder = NewDecoder(a.encoding)
	a.buf = make([]byte, a.readSize)
	return a
}

// Next returns the next text update. It returns io.EOF once the stream has
// completed and a *StreamError once it has failed.
func (a *Accumulator) Next() (Update, error) {
	for {
		if a.result != nil {
			return Update{}, a.result
		}
		if a.closed.Load() {
			a.fail(ErrCancelled, nil)
			continue
		}

		if len(a.pending) > 0 {
			f := a.pending[0]
			a.pending = a.pending[1:]
			if u, ok := a.apply(f); ok {
				return u, nil
			}
			continue
		}

		switch {
		case a.readErr != nil:
			a.fail(a.classify(a.readErr), a.readErr)
			continue
		case a.eof:
			a.complete()
			continue
		}

		a.read()
	}
}

// read performs one read from the body and frames whatever it produced. Data
// returned together with an error is framed before the error is acted on.
func (a *Accumulator) read() {
	n, err := a.body.Read(a.buf)
	if n > 0 {
		a.observer.ObserveChunk(n)
		var frames []Frame
		frames, a.carry = a.framer.Frame(a.decoder.Decode(a.buf[:n]), a.carry)
		a.pending = append(a.pending, frames...)
	}
	switch {
	case err == io.EOF:
		a.eof = true
		a.pending = append(a.pending, a.finalFrames()...)
	case err != nil:
		a.readErr = err
	}
}

// finalFrames flushes the decoder and gives an undelimited trailing fragment
// one last chance to become a frame.
func (a *Accumulator) finalFrames() []Frame {
	tail := a.carry + a.decoder.Flush()
	a.carry = ""
	if tail == "" {
		return nil
	}
	frames, _ := a.framer.Frame("\n", tail)
	return frames
}

// apply processes one frame. It reports true when the frame produced a
// non-empty delta.
func (a *Accumulator) apply(f Frame) (Update, bool) {
	if f.Terminal {
		a.complete()
		return Update{}, false
	}
	switch r := safeParse(a.parser, f.Payload).(type) {
	case RecordDelta:
		if r.Text == "" {
			a.logger.Debug().Msg("empty record")
			return Update{}, false
		}
		a.mu.Lock()
		a.text += r.Text
		text := a.text
		a.mu.Unlock()
		a.observer.ObserveDelta(r.Text)
		return Update{Delta: r.Text, Text: text}, true
	case RecordTerminal:
		a.complete()
	case RecordUnparseable:
		a.logger.Warn().
			Err(r.Err).
			Str("payload", truncate(f.Payload, maxLoggedPayload)).
			Msg("dropping malformed record")
		a.observer.ObserveMalformed(r.Err)
	case RecordFailed:
		a.fail(ErrTransport, r.Err)
	}
	return Update{}, false
}

// Status returns the current status. A stream closed by the caller reports
// StatusFailed even before Next observes the cancellation.
func (a *Accumulator) Status() Status {
	s := Status(a.status.Load())
	if s == StatusActive && a.closed.Load() {
		return StatusFailed
	}
	return s
}

// Text returns the reply accumulated so far.
func (a *Accumulator) Text() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.text
}

// Close releases the body. If the stream is still active it is cancelled:
// a Next blocked in a read returns a *StreamError wrapping ErrCancelled.
func (a *Accumulator) Close() error {
	a.closed.Store(true)
	return a.closeBody()
}

func (a *Accumulator) closeBody() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.body.Close()
	})
	return a.closeErr
}

func (a *Accumulator) complete() {
	a.status.Store(int32(StatusCompleted))
	a.result = io.EOF
	a.release()
	a.logger.Debug().Int("length", len(a.Text())).Msg("stream completed")
	a.observer.ObserveEnd(StatusCompleted, nil)
}

func (a *Accumulator) fail(kind, cause error) {
	err := &StreamError{Kind: kind, Err: cause, Partial: a.Text()}
	a.status.Store(int32(StatusFailed))
	a.result = err
	a.release()
	if kind == ErrCancelled {
		a.logger.Debug().Msg("stream cancelled")
	} else {
		a.logger.Error().Err(cause).Msg("stream failed")
	}
	a.observer.ObserveEnd(StatusFailed, err)
}

// release drops everything held for reading.
func (a *Accumulator) release() {
	_ = a.closeBody()
	a.pending = nil
	a.carry = ""
	a.buf = nil
	a.readErr = nil
}

// classify maps a read error to the kind of failure it represents.
func (a *Accumulator) classify(err error) error {
	if a.closed.Load() ||
		errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled
	}
	return ErrTransport
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
