package cache

import (
	"context"

	"github.com/richinex/daedalus/llm"
)

// Provider decorates an llm.Provider with read-through caching. Cache
// failures are deliberately non-fatal: a broken cache degrades to a plain
// provider call rather than failing the query.
type Provider struct {
	inner llm.Provider
	store *Store
}

// WrapProvider wraps a provider with the given store.
func WrapProvider(inner llm.Provider, store *Store) *Provider {
	return &Provider{inner: inner, store: store}
}

// Name returns the underlying provider name.
func (p *Provider) Name() string {
	return p.inner.Name()
}

// Model returns the underlying model.
func (p *Provider) Model() string {
	return p.inner.Model()
}

// Info returns metadata about the underlying model.
func (p *Provider) Info() llm.ModelInfo {
	return p.inner.Info()
}

// Chat serves the request from cache when possible, otherwise delegates
// and stores the result.
func (p *Provider) Chat(ctx context.Context, messages []llm.ChatMessage) (llm.LLMResponse, error) {
	key := Key(messages, p.inner.Info())

	if cached, ok, err := p.store.Get(ctx, key); err == nil && ok {
		return llm.LLMResponse{Content: cached}, nil
	}

	response, err := p.inner.Chat(ctx, messages)
	if err != nil {
		return llm.LLMResponse{}, err
	}

	_ = p.store.Put(ctx, key, response.Content, p.inner.Model())
	return response, nil
}

// Verify Provider implements llm.Provider
var _ llm.Provider = (*Provider)(nil)
