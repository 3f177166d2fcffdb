// Package tokenizer estimates prompt sizes with the cl100k_base encoding.
//
// The estimate is informational: Groq's Llama models use their own
// vocabulary, so counts are an approximation of what the endpoint bills.
package tokenizer

import (
	"fmt"

	"github.com/entrhq/suzzy/pkg/types"
	"github.com/pkoukk/tiktoken-go"
)

const (
	encodingName = "cl100k_base"

	// tokensPerMessage is the framing overhead chat formats add around each message.
	tokensPerMessage = 4

	// replyPriming is added once for the assistant reply header.
	replyPriming = 3
)

// Tokenizer counts tokens for text and chat messages.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// New loads the cl100k_base encoding.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, err)
	}
	return &Tokenizer{encoding: enc}, nil
}

// CountTokens returns the number of tokens in text. A nil Tokenizer counts zero.
func (t *Tokenizer) CountTokens(text string) int {
	if t == nil || t.encoding == nil || text == "" {
		return 0
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// CountMessagesTokens returns the token count for a chat request carrying messages.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	if t == nil || len(messages) == 0 {
		return 0
	}

	total := replyPriming
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		total += tokensPerMessage
		total += t.CountTokens(string(msg.Role))
		total += t.CountTokens(msg.Content)
	}
	return total
}
