package trickle

import (
	"fmt"
	"strings"
	"time"
)

// Message is one turn of a conversation.
type Message struct {
	Role      Role
	Text      string
	Timestamp time.Time
}

// UserMessage returns a user message stamped with the current time.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text, Timestamp: time.Now()}
}

// AssistantMessage returns an assistant message stamped with the current time.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Text: text, Timestamp: time.Now()}
}

// Validate checks that the message has a known role and, for user messages,
// non-blank text. Assistant messages may be empty when a stream was cancelled
// before any text arrived.
func (m Message) Validate() error {
	switch m.Role {
	case RoleUser:
		if strings.TrimSpace(m.Text) == "" {
			return fmt.Errorf("user message must not be blank: %w", ErrValidation)
		}
	case RoleAssistant:
	default:
		return fmt.Errorf("unknown role %q: %w", m.Role, ErrValidation)
	}
	return nil
}
