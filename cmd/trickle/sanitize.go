package main

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// sanitize strips ANSI escape sequences and control characters from reply
// text before it reaches the terminal. Tabs and newlines are kept; CRLF
// becomes LF and a lone CR is dropped, since streamed output cannot be
// rewritten in place.
//
// An escape sequence cut off at the end of s is stripped as well, so the
// sanitized form of a growing reply only ever grows.
func sanitize(s string) string {
	s = ansi.Strip(s)
	if !strings.ContainsFunc(s, isControl) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !isControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isControl(r rune) bool {
	return (r <= 0x1F && r != '\t' && r != '\n') || r == 0x7F
}
