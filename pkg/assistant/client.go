// Package assistant turns a page snapshot and a user query into an answer
// from an OpenAI-compatible chat-completion endpoint.
//
// Query never fails: endpoint, transport and parse problems are mapped to
// fixed low-confidence answers so the caller always has something to show.
package assistant

import (
	"context"
	"errors"
	"net/http"

	"github.com/entrhq/suzzy/pkg/llm"
	"github.com/entrhq/suzzy/pkg/llm/openai"
	"github.com/entrhq/suzzy/pkg/page"
)

const (
	// Temperature is the sampling temperature for every query.
	Temperature = 0.7

	// MaxTokens caps the completion length for every query.
	MaxTokens = 1000
)

// Settings carries the per-call endpoint configuration.
type Settings struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Logger is the logging surface the client needs; *logging.Logger satisfies it.
type Logger interface {
	Debugf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

// Client queries the completion endpoint.
type Client struct {
	httpClient *http.Client
	logger     Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for completion requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(l Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a completion client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		logger:     nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query asks the model about snap. The settings are read on every call, so
// a credential change takes effect on the next query.
func (c *Client) Query(ctx context.Context, query string, snap page.Snapshot, settings Settings) Response {
	provider, err := openai.NewProvider(settings.APIKey,
		openai.WithModel(settings.Model),
		openai.WithBaseURL(settings.BaseURL),
		openai.WithHTTPClient(c.httpClient),
		openai.WithTemperature(Temperature),
		openai.WithMaxTokens(MaxTokens),
	)
	if err != nil {
		c.logger.Warnf("completion client unavailable: %v", err)
		return ServiceFailure()
	}

	c.logger.Debugf("querying %s (%s) for %q", provider.GetModel(), provider.GetBaseURL(), query)

	reply, err := provider.Complete(ctx, BuildMessages(query, snap))
	if err != nil {
		var apiErr *llm.APIError
		switch {
		case errors.As(err, &apiErr):
			c.logger.Warnf("completion endpoint returned %d: %s", apiErr.StatusCode, apiErr.Body)
		case errors.Is(err, llm.ErrEmptyCompletion):
			c.logger.Warnf("completion endpoint returned no text")
		default:
			c.logger.Warnf("completion request failed: %v", err)
		}
		return ServiceFailure()
	}

	resp, err := ParseResponse(reply.Content)
	if err != nil {
		c.logger.Warnf("unparseable completion: %q", reply.Content)
		return ParseFailure()
	}
	return resp
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
