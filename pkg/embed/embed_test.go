package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inquisit-ai/inquisit/engine/domain"
)

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI("", "text-embedding-3-large"); !errors.Is(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestProviderIDs(t *testing.T) {
	o := NewOllama("", "nomic-embed-text")
	if o.ProviderID() != "ollama/nomic-embed-text" {
		t.Errorf("ollama id = %s", o.ProviderID())
	}
	e, err := NewOpenAI("sk-x", "text-embedding-3-large")
	if err != nil {
		t.Fatal(err)
	}
	if e.ProviderID() != "openai/text-embedding-3-large" {
		t.Errorf("openai id = %s", e.ProviderID())
	}
}

func TestOpenAIEmbedDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{0.1, 0.2}},
				{"embedding": []float64{0.3, 0.4}},
			},
		})
	}))
	defer srv.Close()

	e, err := NewOpenAICompatible("sk-test", srv.URL, "text-embedding-3-large")
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := e.EmbedDocuments(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 2 || vecs[1][0] != float32(0.3) {
		t.Fatalf("wrong vectors: %v", vecs)
	}
}

func TestOpenAIEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float64{0.1}}},
		})
	}))
	defer srv.Close()

	e, _ := NewOpenAICompatible("sk-test", srv.URL, "m")
	if _, err := e.EmbedDocuments(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected count mismatch error")
	}
}

func TestOllamaEmbedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedReq
		json.NewDecoder(r.Body).Decode(&req)
		if req.Prompt != "hello" {
			t.Errorf("prompt = %q", req.Prompt)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResp{Embedding: []float64{1, 2, 3}})
	}))
	defer srv.Close()

	e := NewOllama(srv.URL, "nomic-embed-text")
	vec, err := e.EmbedQuery(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 || vec[2] != 3 {
		t.Fatalf("wrong vector: %v", vec)
	}
}

func TestEmbedDocumentsEmpty(t *testing.T) {
	e, _ := NewOpenAI("sk-x", "m")
	vecs, err := e.EmbedDocuments(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Fatalf("empty batch should be a no-op, got %v %v", vecs, err)
	}
}
