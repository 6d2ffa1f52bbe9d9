// Package config loads service configuration from an optional YAML
// file with environment-variable overrides. Environment always wins so
// deployments can tweak a single knob without editing the file.
package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ChatConfig selects the chat-completion provider.
type ChatConfig struct {
	Provider    string  `yaml:"provider"` // openai | groq | ollama
	OpenAIModel string  `yaml:"openai_model"`
	GroqModel   string  `yaml:"groq_model"`
	OllamaModel string  `yaml:"ollama_model"`
	OllamaURL   string  `yaml:"ollama_url"`
	Temperature float64 `yaml:"temperature"`
}

// EmbedConfig selects the embedding provider. The provider identity is
// part of the vector store's lifecycle: changing it invalidates the
// whole store.
type EmbedConfig struct {
	Provider    string `yaml:"provider"` // openai | ollama
	OpenAIModel string `yaml:"openai_model"`
	OllamaModel string `yaml:"ollama_model"`
	OllamaURL   string `yaml:"ollama_url"`
}

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	Backend    string `yaml:"backend"` // memory | qdrant
	QdrantAddr string `yaml:"qdrant_addr"`
	Collection string `yaml:"collection"`
}

// SearchConfig configures the web-search provider.
type SearchConfig struct {
	Provider   string `yaml:"provider"` // tavily
	MaxResults int    `yaml:"max_results"`
	Depth      string `yaml:"depth"`
}

// Config is the root configuration.
type Config struct {
	Port          string       `yaml:"port"`
	AllowedOrigin string       `yaml:"allowed_origin"`
	NATSURL       string       `yaml:"nats_url"`
	Chat          ChatConfig   `yaml:"chat"`
	Embed         EmbedConfig  `yaml:"embed"`
	Store         StoreConfig  `yaml:"store"`
	Search        SearchConfig `yaml:"search"`

	// API keys come from the environment only, never from the file.
	OpenAIKey string `yaml:"-"`
	GroqKey   string `yaml:"-"`
	TavilyKey string `yaml:"-"`
}

// Load reads the config at path (missing file means defaults), applies
// defaults, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}
	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:          "6001",
		AllowedOrigin: "http://localhost:3000",
		NATSURL:       "nats://localhost:4222",
		Chat: ChatConfig{
			Provider:    "groq",
			OpenAIModel: "gpt-4o-mini",
			GroqModel:   "llama-3.1-8b-instant",
			OllamaModel: "llama3.1:8b",
			OllamaURL:   "http://localhost:11434",
			Temperature: 0.2,
		},
		Embed: EmbedConfig{
			Provider:    "openai",
			OpenAIModel: "text-embedding-3-large",
			OllamaModel: "nomic-embed-text",
			OllamaURL:   "http://localhost:11434",
		},
		Store: StoreConfig{
			Backend:    "memory",
			QdrantAddr: "localhost:6334",
			Collection: "inquisit-kb",
		},
		Search: SearchConfig{
			Provider:   "tavily",
			MaxResults: 5,
			Depth:      "basic",
		},
	}
}

// applyDefaults fills zero values left by a partial YAML file.
func applyDefaults(cfg *Config) {
	d := defaults()
	if cfg.Port == "" {
		cfg.Port = d.Port
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = d.AllowedOrigin
	}
	if cfg.NATSURL == "" {
		cfg.NATSURL = d.NATSURL
	}
	if cfg.Chat.Provider == "" {
		cfg.Chat.Provider = d.Chat.Provider
	}
	if cfg.Chat.OpenAIModel == "" {
		cfg.Chat.OpenAIModel = d.Chat.OpenAIModel
	}
	if cfg.Chat.GroqModel == "" {
		cfg.Chat.GroqModel = d.Chat.GroqModel
	}
	if cfg.Chat.OllamaModel == "" {
		cfg.Chat.OllamaModel = d.Chat.OllamaModel
	}
	if cfg.Chat.OllamaURL == "" {
		cfg.Chat.OllamaURL = d.Chat.OllamaURL
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = d.Chat.Temperature
	}
	if cfg.Embed.Provider == "" {
		cfg.Embed.Provider = d.Embed.Provider
	}
	if cfg.Embed.OpenAIModel == "" {
		cfg.Embed.OpenAIModel = d.Embed.OpenAIModel
	}
	if cfg.Embed.OllamaModel == "" {
		cfg.Embed.OllamaModel = d.Embed.OllamaModel
	}
	if cfg.Embed.OllamaURL == "" {
		cfg.Embed.OllamaURL = d.Embed.OllamaURL
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = d.Store.Backend
	}
	if cfg.Store.QdrantAddr == "" {
		cfg.Store.QdrantAddr = d.Store.QdrantAddr
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = d.Store.Collection
	}
	if cfg.Search.Provider == "" {
		cfg.Search.Provider = d.Search.Provider
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = d.Search.MaxResults
	}
	if cfg.Search.Depth == "" {
		cfg.Search.Depth = d.Search.Depth
	}
}

func applyEnv(cfg *Config) {
	setStr(&cfg.Port, "PORT")
	setStr(&cfg.AllowedOrigin, "ALLOWED_ORIGIN")
	setStr(&cfg.NATSURL, "NATS_URL")
	setStr(&cfg.Chat.Provider, "MODEL_PROVIDER")
	setStr(&cfg.Chat.OpenAIModel, "OPENAI_MODEL")
	setStr(&cfg.Chat.GroqModel, "GROQ_MODEL")
	setStr(&cfg.Chat.OllamaModel, "OLLAMA_CHAT_MODEL")
	setStr(&cfg.Chat.OllamaURL, "OLLAMA_URL")
	setFloat(&cfg.Chat.Temperature, "MODEL_TEMPERATURE")
	setStr(&cfg.Embed.Provider, "EMBED_PROVIDER")
	setStr(&cfg.Embed.OpenAIModel, "OPENAI_EMBED_MODEL")
	setStr(&cfg.Embed.OllamaModel, "OLLAMA_EMBED_MODEL")
	setStr(&cfg.Embed.OllamaURL, "OLLAMA_URL")
	setStr(&cfg.Store.Backend, "STORE_BACKEND")
	setStr(&cfg.Store.QdrantAddr, "QDRANT_URL")
	setStr(&cfg.Store.Collection, "QDRANT_COLLECTION")
	setStr(&cfg.Search.Provider, "SEARCH_PROVIDER")
	setInt(&cfg.Search.MaxResults, "SEARCH_MAX_RESULTS")
	setStr(&cfg.Search.Depth, "SEARCH_DEPTH")

	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GroqKey = os.Getenv("GROQ_API_KEY")
	cfg.TavilyKey = os.Getenv("TAVILY_API_KEY")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
