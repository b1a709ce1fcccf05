// Package ollama implements [trickle.Provider] for Ollama's native chat API.
//
// Ollama streams one JSON object per line. Each line carries a piece of the
// reply in message.content; the stream ends when the server closes it.
package ollama

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "gemma3:1b"
	chatPath       = "/api/chat"
)

// apiRequest is the JSON body sent to /api/chat.
type apiRequest struct {
	Model    string       `json:"model"`
	Messages []apiMessage `json:"messages"`
	Stream   bool         `json:"stream"`
	Options  *apiOptions  `json:"options,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

// apiChunk is one line of a streaming /api/chat response.
type apiChunk struct {
	Model      string      `json:"model"`
	Message    *apiMessage `json:"message"`
	Done       bool        `json:"done"`
	DoneReason string      `json:"done_reason,omitempty"`
	Error      string      `json:"error,omitempty"`
}
