package trickle

import "strings"

// Frame is one delimited protocol record extracted from decoded text, before
// any JSON parsing. A terminal frame carries no payload.
type Frame struct {
	Payload  string
	Terminal bool
}

// Framer splits newly decoded text, prefixed by the carry left over from the
// previous call, into complete frames. Any trailing fragment that is not yet
// delimited is returned as rest and must be passed back in as carry on the
// next call. Implementations are pure: the same input always yields the
// same frames.
type Framer interface {
	Frame(chunk, carry string) (frames []Frame, rest string)
}

// Interface compliance checks.
var (
	_ Framer = NDJSON{}
	_ Framer = SSE{}
)

// NDJSON frames newline-delimited JSON. Every non-blank line is a frame.
type NDJSON struct{}

// Frame implements Framer.
func (NDJSON) Frame(chunk, carry string) ([]Frame, string) {
	var frames []Frame
	rest := splitLines(carry+chunk, func(line string) {
		if line = strings.TrimSpace(line); line != "" {
			frames = append(frames, Frame{Payload: line})
		}
	})
	return frames, rest
}

const (
	ssePrefix       = "data: "
	defaultSentinel = "[DONE]"
)

// SSE frames Server-Sent-Events streams. Only the text after a "data: "
// prefix is a frame; every other line (event names, comments, ids, blank
// separators) is ignored. A payload equal to Sentinel after trimming is
// surfaced as a terminal frame instead of being handed to a parser.
type SSE struct {
	// Sentinel is the end-of-stream marker. Empty means "[DONE]".
	Sentinel string
}

// Frame implements Framer.
func (s SSE) Frame(chunk, carry string) ([]Frame, string) {
	sentinel := s.Sentinel
	if sentinel == "" {
		sentinel = defaultSentinel
	}
	var frames []Frame
	rest := splitLines(carry+chunk, func(line string) {
		payload, ok := strings.CutPrefix(line, ssePrefix)
		if !ok {
			return
		}
		trimmed := strings.TrimSpace(payload)
		switch trimmed {
		case "":
		case sentinel:
			frames = append(frames, Frame{Terminal: true})
		default:
			frames = append(frames, Frame{Payload: payload})
		}
	})
	return frames, rest
}

// splitLines calls fn for every LF-terminated line in text, with the LF and
// any CR before it removed, and returns the unterminated remainder.
func splitLines(text string, fn func(line string)) string {
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			return text
		}
		line := strings.TrimSuffix(text[:i], "\r")
		text = text[i+1:]
		fn(line)
	}
}
