package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fwojciec/trickle"
	trhttp "github.com/fwojciec/trickle/http"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ trickle.Provider = (*Client)(nil)

// Client implements [trickle.Provider] for the Google Gemini API.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	httpClient   *http.Client
	stallTimeout time.Duration
	logger       zerolog.Logger
	observer     trickle.Observer
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model ID. Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithStallTimeout cancels a stream that produces no bytes for d.
func WithStallTimeout(d time.Duration) Option {
	return func(c *Client) { c.stallTimeout = d }
}

// WithLogger sets the logger for requests and dropped records.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver sets the observer attached to every stream.
func WithObserver(o trickle.Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream sends a streaming request to the Gemini API and returns a
// [trickle.Stream] over the SSE response.
func (c *Client) Stream(ctx context.Context, req trickle.Request) (trickle.Stream, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required: %w", trickle.ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	c.logger.Debug().Str("model", model).Int("messages", len(req.Messages)).Msg("gemini: sending request")

	header := http.Header{}
	header.Set(apiKeyHeader, c.apiKey)
	header.Set("Accept", "text/event-stream")
	resp, err := trhttp.PostJSON(ctx, c.httpClient, c.baseURL+streamPath(model), header, buildRequestBody(req))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	return trickle.NewAccumulator(
		trhttp.WithStall(resp.Body, c.stallTimeout),
		trickle.SSE{},
		Parser{},
		trickle.WithLogger(c.logger),
		trickle.WithObserver(c.observer),
	), nil
}

func buildRequestBody(req trickle.Request) apiRequest {
	body := apiRequest{Contents: ConvertMessages(req.Messages)}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if req.Temperature != nil || req.MaxTokens > 0 {
		cfg := &apiGenerationConfig{MaxOutputTokens: int32(req.MaxTokens)}
		if req.Temperature != nil {
			temp := float32(*req.Temperature)
			cfg.Temperature = &temp
		}
		body.GenerationConfig = cfg
	}
	return body
}

// ConvertMessages converts trickle Messages to genai Contents. Assistant
// turns use the "model" role.
// Exported for testing.
func ConvertMessages(msgs []trickle.Message) []*genai.Content {
	result := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		if m.Role == trickle.RoleAssistant {
			if m.Text == "" {
				// Gemini rejects content without parts.
				continue
			}
			role = genai.RoleModel
		}
		result = append(result, genai.NewContentFromText(m.Text, genai.Role(role)))
	}
	return result
}
