// Package anthropic implements [trickle.Provider] for the Anthropic Messages API.
//
// The Messages API streams Server-Sent-Events. Every data line carries a
// JSON object whose type field names the event; text arrives in
// content_block_delta events and message_stop ends the stream.
package anthropic

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 8192
	apiVersion       = "2023-06-01"
	messagesPath     = "/v1/messages"
)

// apiCacheControl specifies a cache breakpoint for prompt caching.
type apiCacheControl struct {
	Type string `json:"type"` // always "ephemeral"
}

// apiRequest is the JSON body sent to the Anthropic Messages API.
type apiRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	Stream      bool             `json:"stream"`
	System      []apiTextBlock   `json:"system,omitempty"`
	Messages    []apiMessage     `json:"messages"`
	Temperature *float64         `json:"temperature,omitempty"`
	Cache       *apiCacheControl `json:"cache_control,omitempty"`
}

type apiMessage struct {
	Role    string         `json:"role"`
	Content []apiTextBlock `json:"content"`
}

type apiTextBlock struct {
	Type         string           `json:"type"` // always "text"
	Text         string           `json:"text"`
	CacheControl *apiCacheControl `json:"cache_control,omitempty"`
}

// sseEvent is the union of the data payloads the parser cares about.
type sseEvent struct {
	Type  string         `json:"type"`
	Delta sseDelta       `json:"delta"`
	Error sseErrorDetail `json:"error"`
}

type sseDelta struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type sseErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
