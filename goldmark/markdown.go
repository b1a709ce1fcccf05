// Package goldmark renders assistant replies, which are usually markdown, to
// ANSI-styled terminal output. Parsing is done by goldmark and styling by
// lipgloss.
//
// Replies are re-rendered on every streamed update, so the input is often an
// incomplete document: an unterminated code fence renders as a code block
// running to the end of the text.
package goldmark

import (
	"github.com/fwojciec/trickle"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// DefaultWidth is used when Render is given a width below 1.
const DefaultWidth = 80

// Renderer renders markdown with a fixed theme.
type Renderer struct {
	parser parser.Parser
	styles styles
}

// New returns a Renderer for theme with GitHub strikethrough enabled.
func New(theme trickle.Theme) *Renderer {
	md := goldmark.New(goldmark.WithExtensions(extension.Strikethrough))
	return &Renderer{
		parser: md.Parser(),
		styles: newStyles(theme),
	}
}

// Render returns source as styled terminal text. Paragraphs, quotes and list
// items are word-wrapped to width. Code block lines are never reflowed; lines
// wider than width are truncated.
func (r *Renderer) Render(source string, width int) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return r.render([]byte(source), width)
}

// Render is a convenience wrapper around New(theme).Render.
func Render(source string, width int, theme trickle.Theme) string {
	return New(theme).Render(source, width)
}
