package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "6001" {
		t.Errorf("port = %s", cfg.Port)
	}
	if cfg.Chat.Provider != "groq" || cfg.Chat.GroqModel != "llama-3.1-8b-instant" {
		t.Errorf("chat defaults wrong: %+v", cfg.Chat)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("store backend = %s", cfg.Store.Backend)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "port: \"9000\"\nchat:\n  provider: openai\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("port = %s", cfg.Port)
	}
	if cfg.Chat.Provider != "openai" {
		t.Errorf("chat provider = %s", cfg.Chat.Provider)
	}
	// Untouched fields keep their defaults.
	if cfg.Chat.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("openai model = %s", cfg.Chat.OpenAIModel)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7777")
	t.Setenv("MODEL_PROVIDER", "ollama")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7777" {
		t.Errorf("env should win: port = %s", cfg.Port)
	}
	if cfg.Chat.Provider != "ollama" {
		t.Errorf("chat provider = %s", cfg.Chat.Provider)
	}
	if cfg.OpenAIKey != "sk-test" {
		t.Errorf("api key not picked up")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\tnot yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
