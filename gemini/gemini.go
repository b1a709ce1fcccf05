// Package gemini implements [trickle.Provider] for the Google Gemini API.
//
// It calls the REST streamGenerateContent endpoint with alt=sse and reads
// the Server-Sent-Events body through a [trickle.Accumulator]. Request and
// response payloads use the google.golang.org/genai wire types.
package gemini

import "google.golang.org/genai"

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"
	apiKeyHeader   = "x-goog-api-key"
)

// apiRequest is the JSON body sent to streamGenerateContent.
type apiRequest struct {
	Contents          []*genai.Content     `json:"contents"`
	SystemInstruction *genai.Content       `json:"systemInstruction,omitempty"`
	GenerationConfig  *apiGenerationConfig `json:"generationConfig,omitempty"`
}

type apiGenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	MaxOutputTokens int32    `json:"maxOutputTokens,omitempty"`
}

func streamPath(model string) string {
	return "/v1beta/models/" + model + ":streamGenerateContent?alt=sse"
}
