package bubbletea

import (
	"strings"

	"github.com/fwojciec/trickle/goldmark"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

// AssistantTextBlock renders streamed reply text as markdown. Paragraphs that
// end before the last blank line are rendered once per width and cached;
// only the trailing paragraph is re-rendered on each update.
type AssistantTextBlock struct {
	text     string
	renderer *goldmark.Renderer

	// finalizedRaw is the stable prefix ending at the last blank line outside
	// a code fence.
	finalizedRaw     string
	finalizedByWidth map[int]string
}

// NewAssistantTextBlock creates a new block for streamed reply text.
func NewAssistantTextBlock(renderer *goldmark.Renderer) *AssistantTextBlock {
	return &AssistantTextBlock{
		renderer:         renderer,
		finalizedByWidth: make(map[int]string),
	}
}

// SetText replaces the block's text with the reply so far.
func (b *AssistantTextBlock) SetText(text string) {
	b.text = text
	b.promoteFinalized()
}

// Text returns the raw reply text.
func (b *AssistantTextBlock) Text() string {
	return b.text
}

func (b *AssistantTextBlock) View(width int) string {
	if width <= 0 {
		return b.renderer.Render(b.text, width)
	}
	finalized := b.renderFinalized(width)
	trailing := b.trailingRaw()
	if strings.TrimSpace(trailing) == "" {
		return finalized
	}
	rendered := b.renderer.Render(trailing, width)
	if strings.TrimSpace(rendered) == "" {
		return finalized
	}
	if finalized == "" {
		return rendered
	}
	return strings.TrimRight(finalized, "\n") + "\n\n" + strings.TrimLeft(rendered, "\n")
}

// promoteFinalized moves the boundary to the last "\n\n" whose prefix has no
// open code fence. Splitting inside a fence would render half a code block
// as prose.
func (b *AssistantTextBlock) promoteFinalized() {
	raw := b.text
	if !strings.HasPrefix(raw, b.finalizedRaw) {
		b.finalizedRaw = ""
		clear(b.finalizedByWidth)
	}
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		candidate := raw[:idx]
		if !hasUnclosedFence(candidate) {
			if candidate != b.finalizedRaw {
				b.finalizedRaw = candidate
				clear(b.finalizedByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantTextBlock) renderFinalized(width int) string {
	if width <= 0 || b.finalizedRaw == "" {
		return ""
	}
	if cached, ok := b.finalizedByWidth[width]; ok {
		return cached
	}
	rendered := b.renderer.Render(b.finalizedRaw, width)
	b.finalizedByWidth[width] = rendered
	return rendered
}

func (b *AssistantTextBlock) trailingRaw() string {
	if b.finalizedRaw == "" {
		return b.text
	}
	return strings.TrimPrefix(b.text, b.finalizedRaw+"\n\n")
}

// hasUnclosedFence reports an odd number of "```" in s. Triple backticks
// inside inline code are miscounted.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
