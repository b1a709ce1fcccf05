package bubbletea

// MessageBlock is a renderable element in the conversation. View takes a
// width so the root model controls layout and blocks are testable in
// isolation.
type MessageBlock interface {
	View(width int) string
}

// blockSeparator returns what goes between two consecutive blocks. An error
// sits directly under the reply it interrupted.
func blockSeparator(prev, curr MessageBlock) string {
	if _, ok := curr.(*ErrorBlock); ok {
		if _, ok := prev.(*AssistantTextBlock); ok {
			return "\n"
		}
	}
	return "\n\n"
}
