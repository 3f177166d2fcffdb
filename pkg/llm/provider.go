// Package llm provides abstractions for chat-completion provider integration.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    apiKey,
//	    openai.WithBaseURL(openai.GroqBaseURL),
//	    openai.WithModel("llama3-8b-8192"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reply, err := provider.Complete(ctx, []*types.Message{
//	    types.NewUserMessage("Hello!"),
//	})
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/suzzy/pkg/types"
)

// ErrEmptyCompletion is returned when the endpoint answered successfully but
// carried no completion text.
var ErrEmptyCompletion = errors.New("no response from model")

// APIError is returned when the completion endpoint answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Provider defines the interface for chat-completion integrations.
//
// Providers handle API communication only. Prompt construction and the
// interpretation of the completion text belong to the caller.
type Provider interface {
	// Complete sends messages to the model and returns the full reply.
	//
	// Returns *APIError for non-2xx responses and ErrEmptyCompletion when the
	// response holds no completion text. Transport failures are returned
	// wrapped.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// GetModel returns the model name being used.
	GetModel() string

	// GetBaseURL returns the base URL being used for API requests.
	GetBaseURL() string
}
