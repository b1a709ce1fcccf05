// Package chat runs conversation turns between a Session and a Provider.
package chat

import (
	"context"
	"time"

	"github.com/fwojciec/trickle"
)

// Chat sends a session's conversation to a Provider and records the reply.
type Chat struct {
	provider trickle.Provider
}

// New creates a new Chat with the given provider.
func New(provider trickle.Provider) *Chat {
	return &Chat{provider: provider}
}

// SendOption configures a single Send invocation.
type SendOption func(*sendConfig)

type sendConfig struct {
	onUpdate    func(string)
	model       string
	maxTokens   int
	temperature *float64
}

// WithUpdateHandler sets a callback that receives the full reply text after
// every delta. If nil or not set, updates are silently discarded.
func WithUpdateHandler(h func(text string)) SendOption {
	return func(c *sendConfig) {
		c.onUpdate = h
	}
}

// WithModel sets the model ID for this turn.
// Empty string means the provider uses its default model.
func WithModel(model string) SendOption {
	return func(c *sendConfig) {
		c.model = model
	}
}

// WithMaxTokens limits the length of the reply. Zero means provider default.
func WithMaxTokens(n int) SendOption {
	return func(c *sendConfig) {
		c.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature for this turn.
func WithTemperature(t float64) SendOption {
	return func(c *sendConfig) {
		c.temperature = &t
	}
}

// Send streams a reply to the session's conversation, which must end with a
// user message, and appends it to session.Messages.
//
// When the stream fails or is cancelled after text has arrived, the partial
// reply is still appended and the stream error is returned. A rejected
// request appends nothing.
func (c *Chat) Send(ctx context.Context, session *trickle.Session, opts ...SendOption) error {
	var cfg sendConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req := trickle.Request{
		Model:        cfg.model,
		SystemPrompt: session.SystemPrompt,
		Messages:     session.Messages,
		MaxTokens:    cfg.maxTokens,
		Temperature:  cfg.temperature,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	stream, err := c.provider.Stream(ctx, req)
	if err != nil {
		return err
	}

	text, streamErr := trickle.Consume(ctx, stream, cfg.onUpdate)
	if streamErr != nil && text == "" {
		return streamErr
	}

	session.Messages = append(session.Messages, trickle.AssistantMessage(text))
	session.UpdatedAt = time.Now()
	return streamErr
}

// Visible reports whether err should be shown to the user. Cancellations are
// clean partial stops and are not displayed.
func Visible(err error) bool {
	return err != nil && !trickle.IsCancelled(err)
}
