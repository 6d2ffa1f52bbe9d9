package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// groqBaseURL is Groq's OpenAI-compatible endpoint.
const groqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIClient talks to any OpenAI-compatible chat completion API.
type OpenAIClient struct {
	client      openai.Client
	provider    string
	model       string
	temperature float64
}

// NewOpenAI creates a chat client for the OpenAI API.
func NewOpenAI(apiKey, model string, temperature float64) (*OpenAIClient, error) {
	if err := requireKey("openai", apiKey); err != nil {
		return nil, err
	}
	return &OpenAIClient{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		provider:    "openai",
		model:       model,
		temperature: temperature,
	}, nil
}

// NewGroq creates a chat client for Groq's OpenAI-compatible API.
func NewGroq(apiKey, model string, temperature float64) (*OpenAIClient, error) {
	if err := requireKey("groq", apiKey); err != nil {
		return nil, err
	}
	return &OpenAIClient{
		client:      openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(groqBaseURL)),
		provider:    "groq",
		model:       model,
		temperature: temperature,
	}, nil
}

// NewOpenAICompatible creates a chat client against an arbitrary base
// URL. Used by tests to point at a stub server.
func NewOpenAICompatible(apiKey, baseURL, model string, temperature float64) (*OpenAIClient, error) {
	if err := requireKey("openai", apiKey); err != nil {
		return nil, err
	}
	return &OpenAIClient{
		client:      openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)),
		provider:    "openai",
		model:       model,
		temperature: temperature,
	}, nil
}

// Invoke implements Client.
func (c *OpenAIClient) Invoke(ctx context.Context, msgs []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
		Messages:    make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)),
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s: chat completion: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: chat completion returned no choices", c.provider)
	}
	return resp.Choices[0].Message.Content, nil
}
