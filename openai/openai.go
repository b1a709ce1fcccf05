// Package openai implements [trickle.Provider] for OpenAI-compatible chat
// completion APIs, including Ollama's /v1 endpoint.
//
// Responses arrive as Server-Sent-Events whose data lines carry
// choices[0].delta.content and end with a literal [DONE].
package openai

const (
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultModel   = "gemma3:1b"
	completionPath = "/chat/completions"
)

// apiRequest is the JSON body sent to /chat/completions.
type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	Stream      bool         `json:"stream"`
	Temperature *float64     `json:"temperature,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// apiChunk is one data line of a streaming completion.
type apiChunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
