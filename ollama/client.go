package ollama

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

// Client implements [trickle.Provider] for Ollama's /api/chat endpoint.
type Client struct {
	baseURL      string
	model        string
	httpClient   *http.Client
	stallTimeout time.Duration
	logger       zerolog.Logger
	observer     trickle.Observer
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the server base URL. Useful for testing with httptest.
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
// Zero disables the timeout.
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

// New creates a new Ollama [Client] with the given options.
func New(opts ...Option) *Client {
	c := &Client{
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

// Stream sends a streaming chat request and returns a [trickle.Stream] over
// the NDJSON response.
func (c *Client) Stream(ctx context.Context, req trickle.Request) (trickle.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	body := c.buildRequestBody(req)
	c.logger.Debug().
		Str("model", body.Model).
		Int("messages", len(body.Messages)).
		Msg("ollama: sending chat request")

	resp, err := trhttp.PostJSON(ctx, c.httpClient, c.baseURL+chatPath, nil, body)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	return trickle.NewAccumulator(
		trhttp.WithStall(resp.Body, c.stallTimeout),
		trickle.NDJSON{},
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

	msgs := make([]apiMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, apiMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, apiMessage{Role: string(m.Role), Content: m.Text})
	}

	apiReq := apiRequest{
		Model:    model,
		Messages: msgs,
		Stream:   true,
	}
	if req.Temperature != nil || req.MaxTokens > 0 {
		apiReq.Options = &apiOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		}
	}
	return apiReq
}
