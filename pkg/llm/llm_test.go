package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inquisit-ai/inquisit/engine/domain"
	"github.com/inquisit-ai/inquisit/pkg/config"
)

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI("", "gpt-4o-mini", 0.2); !errors.Is(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := NewGroq("", "llama-3.1-8b-instant", 0.2); !errors.Is(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	cfg, _ := config.Load("")
	cfg.Chat.Provider = "carrier-pigeon"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestOpenAIInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["model"] != "test-model" {
			t.Errorf("model = %v", req["model"])
		}
		msgs := req["messages"].([]any)
		if len(msgs) != 2 {
			t.Errorf("expected 2 messages, got %d", len(msgs))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "pong"}},
			},
		})
	}))
	defer srv.Close()

	c, err := NewOpenAICompatible("sk-test", srv.URL, "test-model", 0.2)
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Invoke(context.Background(), []Message{System("be terse"), User("ping")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "pong" {
		t.Fatalf("reply = %q", got)
	}
}

func TestOllamaInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaChatReq
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("stream should be disabled")
		}
		json.NewEncoder(w).Encode(ollamaChatResp{
			Message: ollamaChatMessage{Role: "assistant", Content: "hello"},
			Done:    true,
		})
	}))
	defer srv.Close()

	c := NewOllama(srv.URL, "llama3.1:8b", 0.2)
	got, err := c.Invoke(context.Background(), []Message{User("hi")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Fatalf("reply = %q", got)
	}
}

func TestOllamaInvokeBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllama(srv.URL, "nope", 0.2)
	if _, err := c.Invoke(context.Background(), []Message{User("hi")}); err == nil {
		t.Fatal("expected error on non-200")
	}
}
