package trickle

import "fmt"

// Record is a sealed interface representing the result of parsing one
// frame. The unexported marker method prevents external implementations.
type Record interface {
	record()
}

// RecordDelta carries text to append to the reply. Empty text is a valid
// record (keep-alives, metadata-only chunks) that produces no update.
type RecordDelta struct {
	Text string
}

func (RecordDelta) record() {}

// RecordTerminal is an explicit end-of-stream marker found inside a record.
type RecordTerminal struct{}

func (RecordTerminal) record() {}

// RecordUnparseable is a frame that could not be interpreted. It is dropped
// and never aborts the stream.
type RecordUnparseable struct {
	Err error
}

func (RecordUnparseable) record() {}

// RecordFailed is a well-formed record in which the provider reports that
// the response cannot continue. It fails the stream as a transport failure
// and keeps the text accumulated so far.
type RecordFailed struct {
	Err error
}

func (RecordFailed) record() {}

// Interface compliance checks.
var (
	_ Record = RecordDelta{}
	_ Record = RecordTerminal{}
	_ Record = RecordUnparseable{}
	_ Record = RecordFailed{}
)

// Parser interprets a single frame payload under a provider's JSON shape.
// Parse must not fail: malformed input is reported as RecordUnparseable.
type Parser interface {
	Parse(payload string) Record
}

// ParserFunc adapts an ordinary function to the Parser interface.
type ParserFunc func(payload string) Record

// Parse calls f(payload).
func (f ParserFunc) Parse(payload string) Record {
	return f(payload)
}

// safeParse runs p and converts a panic into RecordUnparseable so a bad
// record can never take the stream down with it.
func safeParse(p Parser, payload string) (rec Record) {
	defer func() {
		if r := recover(); r != nil {
			rec = RecordUnparseable{Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()
	rec = p.Parse(payload)
	if rec == nil {
		return RecordUnparseable{Err: ErrMalformedRecord}
	}
	return rec
}
