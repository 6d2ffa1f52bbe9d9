// Package embed abstracts text-embedding providers. The provider
// identity participates in the vector store lifecycle: query and
// corpus must be embedded by the same provider, so the store is keyed
// by ProviderID and invalidated when it changes.
package embed

import (
	"context"
	"fmt"

	"github.com/inquisit-ai/inquisit/engine/domain"
	"github.com/inquisit-ai/inquisit/pkg/config"
)

// Embedder converts text into fixed-dimensional vectors.
type Embedder interface {
	// ProviderID identifies the embedding space (provider + model).
	ProviderID() string
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// EmbedDocuments embeds a batch of document chunks.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the configured embedder.
func New(cfg *config.Config) (Embedder, error) {
	switch cfg.Embed.Provider {
	case "openai":
		return NewOpenAI(cfg.OpenAIKey, cfg.Embed.OpenAIModel)
	case "ollama":
		return NewOllama(cfg.Embed.OllamaURL, cfg.Embed.OllamaModel), nil
	default:
		return nil, fmt.Errorf("embed: unknown provider %q", cfg.Embed.Provider)
	}
}

func requireKey(provider, key string) error {
	if key == "" {
		return fmt.Errorf("embed: %s: %w", provider, domain.ErrMissingCredentials)
	}
	return nil
}
