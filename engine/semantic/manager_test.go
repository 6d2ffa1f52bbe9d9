package semantic

import (
	"context"
	"errors"
	"testing"
)

func TestManagerBuildsLazilyPerProvider(t *testing.T) {
	built := 0
	m := NewManager(func(string) (Store, error) {
		built++
		return NewMemoryStore(), nil
	})

	a1, err := m.Get("openai/text-embedding-3-large")
	if err != nil {
		t.Fatal(err)
	}
	a2, _ := m.Get("openai/text-embedding-3-large")
	if a1 != a2 {
		t.Fatal("same provider should reuse the store")
	}
	b, _ := m.Get("ollama/nomic-embed-text")
	if a1 == b {
		t.Fatal("different providers must not share a store")
	}
	if built != 2 {
		t.Fatalf("factory called %d times", built)
	}
}

func TestManagerResetRebuildsEmpty(t *testing.T) {
	ctx := context.Background()
	m := NewManager(func(string) (Store, error) { return NewMemoryStore(), nil })

	s, _ := m.Get("p")
	s.Upsert(ctx, []Record{rec("x", 0, 1)})

	if err := m.Reset(ctx, "p"); err != nil {
		t.Fatal(err)
	}
	fresh, _ := m.Get("p")
	hits, err := fresh.Search(ctx, []float32{1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected empty store after reset, got %d hits", len(hits))
	}
}

func TestManagerResetUnknownProviderIsNoop(t *testing.T) {
	m := NewManager(func(string) (Store, error) { return NewMemoryStore(), nil })
	if err := m.Reset(context.Background(), "never-seen"); err != nil {
		t.Fatal(err)
	}
}

func TestManagerFactoryErrorPropagates(t *testing.T) {
	boom := errors.New("dial failed")
	m := NewManager(func(string) (Store, error) { return nil, boom })
	if _, err := m.Get("p"); !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}
