package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fwojciec/trickle"
	trhttp "github.com/fwojciec/trickle/http"
	"github.com/rs/zerolog"
)

// Interface compliance check.
var _ trickle.Provider = (*Client)(nil)

// Client implements [trickle.Provider] for the Anthropic Messages API.
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

// WithModel sets the model used when a request does not name one.
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

// New creates a new Anthropic [Client] with the given API key and options.
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

// Stream sends a streaming request to the Anthropic Messages API and returns
// a [trickle.Stream] over the SSE response.
func (c *Client) Stream(ctx context.Context, req trickle.Request) (trickle.Stream, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required: %w", trickle.ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	body := c.buildRequestBody(req)
	c.logger.Debug().Str("model", body.Model).Int("messages", len(body.Messages)).Msg("anthropic: sending request")

	header := http.Header{}
	header.Set("X-Api-Key", c.apiKey)
	header.Set("Anthropic-Version", apiVersion)
	resp, err := trhttp.PostJSON(ctx, c.httpClient, c.baseURL+messagesPath, header, body)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	return trickle.NewAccumulator(
		trhttp.WithStall(resp.Body, c.stallTimeout),
		trickle.SSE{},
		Parser{},
		trickle.WithLogger(c.logger),
		trickle.WithObserver(c.observer),
	), nil
}

func (c *Client) buildRequestBody(req trickle.Request) apiRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	apiReq := apiRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Stream:      true,
		System:      convertSystem(req.SystemPrompt),
		Messages:    convertMessages(req.Messages),
		Temperature: req.Temperature,
	}
	injectCacheMarkers(&apiReq)
	return apiReq
}

// convertSystem converts a system prompt string to an array of content blocks
// suitable for the Anthropic API. Returns nil when the prompt is empty.
func convertSystem(prompt string) []apiTextBlock {
	if prompt == "" {
		return nil
	}
	return []apiTextBlock{{Type: "text", Text: prompt}}
}

// injectCacheMarkers sets cache_control breakpoints on the request:
//  1. Top-level: automatic caching for the conversation message window.
//  2. System prompt last block: stable content breakpoint.
func injectCacheMarkers(req *apiRequest) {
	cc := &apiCacheControl{Type: "ephemeral"}
	req.Cache = cc
	if len(req.System) > 0 {
		req.System[len(req.System)-1].CacheControl = cc
	}
}

// convertMessages drops empty assistant turns, which the API rejects.
func convertMessages(msgs []trickle.Message) []apiMessage {
	result := make([]apiMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == trickle.RoleAssistant && m.Text == "" {
			continue
		}
		result = append(result, apiMessage{
			Role:    string(m.Role),
			Content: []apiTextBlock{{Type: "text", Text: m.Text}},
		})
	}
	return result
}
