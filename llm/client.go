// LLM Client - Simple wrapper around providers.

package llm

import (
	"context"
)

// Client wraps a Provider with the prompt/system-prompt interface the
// engine consumes. The fan-out engine issues Query calls from multiple
// goroutines; Client itself holds no mutable state.
type Client struct {
	provider Provider
}

// NewClient creates a new LLM client from a provider.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider}
}

// Query sends a single prompt with an optional system prompt and returns
// just the response text. An empty systemPrompt sends no system message.
func (c *Client) Query(ctx context.Context, prompt, systemPrompt string) (string, error) {
	var messages []ChatMessage
	if systemPrompt != "" {
		messages = append(messages, SystemMessage(systemPrompt))
	}
	messages = append(messages, UserMessage(prompt))

	response, err := c.provider.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

// Chat sends a chat completion request and returns just the content.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	response, err := c.provider.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

// Info returns metadata about the underlying model.
func (c *Client) Info() ModelInfo {
	return c.provider.Info()
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}
