// Package llm abstracts chat-completion providers behind a single
// capability: given an ordered list of system/user messages, return
// the model's text.
package llm

import (
	"context"
	"fmt"

	"github.com/inquisit-ai/inquisit/engine/domain"
	"github.com/inquisit-ai/inquisit/pkg/config"
)

// Role is a chat message role.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one turn of a chat prompt.
type Message struct {
	Role    Role
	Content string
}

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Client is a chat-completion provider.
type Client interface {
	// Invoke sends the messages and returns the model's reply text.
	Invoke(ctx context.Context, msgs []Message) (string, error)
}

// New builds the configured chat client. Providers that need an API
// key fail with domain.ErrMissingCredentials when it is absent.
func New(cfg *config.Config) (Client, error) {
	switch cfg.Chat.Provider {
	case "openai":
		return NewOpenAI(cfg.OpenAIKey, cfg.Chat.OpenAIModel, cfg.Chat.Temperature)
	case "groq":
		return NewGroq(cfg.GroqKey, cfg.Chat.GroqModel, cfg.Chat.Temperature)
	case "ollama":
		return NewOllama(cfg.Chat.OllamaURL, cfg.Chat.OllamaModel, cfg.Chat.Temperature), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Chat.Provider)
	}
}

func requireKey(provider, key string) error {
	if key == "" {
		return fmt.Errorf("llm: %s: %w", provider, domain.ErrMissingCredentials)
	}
	return nil
}
