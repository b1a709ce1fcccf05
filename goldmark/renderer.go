package goldmark

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/trickle"
	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	codeGutter  = "│ "
	quoteGutter = "▌ "
	ellipsis    = "…"
	minWrap     = 10
	maxRule     = 40
)

type styles struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	heading   lipgloss.Style
	muted     lipgloss.Style
	link      lipgloss.Style
	code      lipgloss.Style
	codeSpan  lipgloss.Style
	quoteBar  lipgloss.Style
	quoteText lipgloss.Style
}

func newStyles(theme trickle.Theme) styles {
	return styles{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		heading:   lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		link:      lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Underline(true),
		code:      lipgloss.NewStyle().Background(ansiColor(theme.CodeBg)),
		codeSpan:  lipgloss.NewStyle().Bold(true).Background(ansiColor(theme.CodeBg)),
		quoteBar:  lipgloss.NewStyle().Foreground(ansiColor(theme.Quote)),
		quoteText: lipgloss.NewStyle().Italic(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *Renderer) render(source []byte, width int) string {
	doc := r.parser.Parse(text.NewReader(source))

	var buf bytes.Buffer
	r.blocks(doc, source, width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func (r *Renderer) blocks(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(c, source, width, buf)
		if c.NextSibling() != nil && c.Kind() != ast.KindHTMLBlock {
			buf.WriteString("\n")
		}
	}
}

func (r *Renderer) block(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	s := r.styles
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		writeWrapped(buf, r.inlines(n, source), width)

	case *ast.Heading:
		writeWrapped(buf, s.heading.Render(r.inlines(n, source)), width)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			buf.WriteString(s.muted.Render(lang))
			buf.WriteString("\n")
		}
		r.code(n, source, width, buf)

	case *ast.CodeBlock:
		r.code(n, source, width, buf)

	case *ast.Blockquote:
		r.quote(n, source, width, buf)

	case *ast.List:
		r.list(n, source, width, buf, 0)

	case *ast.ThematicBreak:
		buf.WriteString(s.muted.Render(strings.Repeat("─", min(width, maxRule))))
		buf.WriteString("\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		r.blocks(node, source, width, buf)
	}
}

// code writes the lines of a code block behind a gutter, truncating any line
// that does not fit.
func (r *Renderer) code(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	s := r.styles
	gutter := s.muted.Render(codeGutter)
	avail := max(width-runewidth.StringWidth(codeGutter), 1)
	lines := node.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(source)), "\r\n")
		line = strings.ReplaceAll(line, "\t", "    ")
		line = runewidth.Truncate(line, avail, ellipsis)
		buf.WriteString(gutter)
		buf.WriteString(s.code.Render(line))
		buf.WriteString("\n")
	}
}

// quote renders the quote's children at reduced width and prefixes every
// resulting line with a bar.
func (r *Renderer) quote(node *ast.Blockquote, source []byte, width int, buf *bytes.Buffer) {
	s := r.styles
	inner := max(width-runewidth.StringWidth(quoteGutter), minWrap)
	var body bytes.Buffer
	r.blocks(node, source, inner, &body)
	bar := s.quoteBar.Render(quoteGutter)
	for _, line := range strings.Split(strings.TrimRight(body.String(), "\n"), "\n") {
		buf.WriteString(bar)
		buf.WriteString(s.quoteText.Render(line))
		buf.WriteString("\n")
	}
}

func (r *Renderer) list(node *ast.List, source []byte, width int, buf *bytes.Buffer, depth int) {
	indent := strings.Repeat("  ", depth)
	n := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "- "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", n)
			n++
		}

		var content bytes.Buffer
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				if content.Len() > 0 {
					content.WriteString("\n")
				}
				content.WriteString(r.inlines(in, source))
			case *ast.List:
				if content.Len() > 0 {
					writeItem(buf, indent, marker, content.String(), width)
					content.Reset()
				}
				r.list(in, source, width, buf, depth+1)
				marker = strings.Repeat(" ", len(marker))
			default:
				var nested bytes.Buffer
				r.block(ic, source, width-len(indent)-len(marker), &nested)
				content.WriteString(strings.TrimRight(nested.String(), "\n"))
			}
		}
		if content.Len() > 0 {
			writeItem(buf, indent, marker, content.String(), width)
		}
	}
}

// writeItem writes a list item with continuation lines aligned under the
// first character after the marker.
func writeItem(buf *bytes.Buffer, indent, marker, content string, width int) {
	prefix := indent + marker
	wrapped := lipgloss.NewStyle().Width(max(width-len(prefix), minWrap)).Render(content)
	pad := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			buf.WriteString(prefix)
		} else {
			buf.WriteString(pad)
		}
		buf.WriteString(strings.TrimRight(line, " "))
		buf.WriteString("\n")
	}
}

func writeWrapped(buf *bytes.Buffer, s string, width int) {
	wrapped := lipgloss.NewStyle().Width(width).Render(s)
	for _, line := range strings.Split(wrapped, "\n") {
		buf.WriteString(strings.TrimRight(line, " "))
		buf.WriteString("\n")
	}
}

// inlines renders the inline children of node.
func (r *Renderer) inlines(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.inline(c, source, &buf)
	}
	return buf.String()
}

func (r *Renderer) inline(node ast.Node, source []byte, buf *bytes.Buffer) {
	s := r.styles
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		switch {
		case n.HardLineBreak():
			buf.WriteByte('\n')
		case n.SoftLineBreak():
			buf.WriteByte(' ')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := r.inlines(n, source)
		if n.Level == 1 {
			buf.WriteString(s.italic.Render(inner))
		} else {
			buf.WriteString(s.bold.Render(inner))
		}

	case *east.Strikethrough:
		buf.WriteString(s.strike.Render(r.inlines(n, source)))

	case *ast.CodeSpan:
		buf.WriteString(s.codeSpan.Render(r.inlines(n, source)))

	case *ast.Link:
		buf.WriteString(s.link.Render(r.inlines(n, source)))
		buf.WriteString(" ")
		buf.WriteString(s.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.AutoLink:
		buf.WriteString(s.link.Render(string(n.URL(source))))

	case *ast.Image:
		buf.WriteString(s.link.Render(r.inlines(n, source)))
		buf.WriteString(" ")
		buf.WriteString(s.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.RawHTML:
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.inline(c, source, buf)
		}
	}
}
