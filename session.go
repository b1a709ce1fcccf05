package trickle

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a conversation session.
type Session struct {
	ID           string
	Messages     []Message
	SystemPrompt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSession returns an empty session with a random ID.
func NewSession(systemPrompt string) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		SystemPrompt: systemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Reset drops every message and keeps the system prompt.
func (s *Session) Reset() {
	s.Messages = nil
	s.UpdatedAt = time.Now()
}

// DropUnanswered removes a trailing user message that got no reply, so a
// failed turn does not leave two user messages in a row. It reports whether
// a message was removed.
func (s *Session) DropUnanswered() bool {
	n := len(s.Messages)
	if n == 0 || s.Messages[n-1].Role != RoleUser {
		return false
	}
	s.Messages = s.Messages[:n-1]
	s.UpdatedAt = time.Now()
	return true
}
