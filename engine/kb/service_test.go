package kb

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/inquisit-ai/inquisit/engine/domain"
	"github.com/inquisit-ai/inquisit/engine/semantic"
	"github.com/inquisit-ai/inquisit/pkg/llm"
)

type fakeEmbedder struct {
	id string
}

func (f *fakeEmbedder) ProviderID() string { return f.id }

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return embedText(text), nil
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedText(t)
	}
	return out, nil
}

// embedText derives a crude 4-dim vector from character counts so that
// similar texts land near each other.
func embedText(text string) []float32 {
	v := make([]float32, 4)
	for _, r := range text {
		v[int(r)%4]++
	}
	return v
}

type fakeChat struct {
	reply string
	err   error
	msgs  []llm.Message
}

func (f *fakeChat) Invoke(_ context.Context, msgs []llm.Message) (string, error) {
	f.msgs = msgs
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestService(chat llm.Client) (*Service, *semantic.MemoryStore) {
	store := semantic.NewMemoryStore()
	mgr := semantic.NewManager(func(string) (semantic.Store, error) { return store, nil })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(&fakeEmbedder{id: "test/fixed"}, mgr, chat, logger), store
}

func TestIngestRejectsBlankText(t *testing.T) {
	svc, _ := newTestService(&fakeChat{})
	if _, err := svc.Ingest(context.Background(), "   \n ", "doc"); !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestIngestDefaultsSource(t *testing.T) {
	svc, _ := newTestService(&fakeChat{})
	receipt, err := svc.Ingest(context.Background(), "some knowledge", "")
	if err != nil {
		t.Fatal(err)
	}
	if receipt.Source != "pasted-text" {
		t.Errorf("source = %q", receipt.Source)
	}
	if receipt.ChunkCount != 1 {
		t.Errorf("chunkCount = %d", receipt.ChunkCount)
	}
}

func TestIngestTwiceRestartsChunkIDs(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(&fakeChat{})

	text := strings.Repeat("repeatable knowledge ", 100) // > one chunk
	if _, err := svc.Ingest(ctx, text, "doc"); err != nil {
		t.Fatal(err)
	}
	first := store.Len()
	if _, err := svc.Ingest(ctx, text, "doc"); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 2*first {
		t.Fatalf("expected %d records, got %d", 2*first, store.Len())
	}

	hits, err := store.Search(ctx, embedText(text), store.Len())
	if err != nil {
		t.Fatal(err)
	}
	zeros := 0
	for _, h := range hits {
		if h.Chunk.ChunkID == 0 {
			zeros++
		}
	}
	if zeros != 2 {
		t.Fatalf("expected chunk id 0 twice, got %d times", zeros)
	}
}

func TestAskRejectsBlankQuery(t *testing.T) {
	svc, _ := newTestService(&fakeChat{})
	if _, err := svc.Ask(context.Background(), "  ", 2); !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestAskGroundsPromptInRetrievedChunks(t *testing.T) {
	ctx := context.Background()
	chat := &fakeChat{reply: "  Grounded answer.  "}
	svc, _ := newTestService(chat)

	if _, err := svc.Ingest(ctx, "kubernetes is a container orchestrator", "notes"); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Ask(ctx, "what is kubernetes", 2)
	if err != nil {
		t.Fatal(err)
	}
	if got.Answer != "Grounded answer." {
		t.Errorf("answer = %q", got.Answer)
	}
	if len(got.Sources) != 1 || got.Sources[0] != (domain.ChunkRef{Source: "notes", ChunkID: 0}) {
		t.Errorf("sources = %+v", got.Sources)
	}
	if got.Confidence < 0 || got.Confidence > 1 {
		t.Errorf("confidence out of range: %v", got.Confidence)
	}

	if len(chat.msgs) != 2 || chat.msgs[0].Role != llm.RoleSystem {
		t.Fatalf("prompt shape = %+v", chat.msgs)
	}
	user := chat.msgs[1].Content
	if !strings.Contains(user, "[#1 notes #0]") {
		t.Errorf("context header missing from prompt:\n%s", user)
	}
	if !strings.Contains(user, "kubernetes is a container orchestrator") {
		t.Errorf("chunk text missing from prompt:\n%s", user)
	}
}

func TestAskEmptyStoreUsesNoContextPlaceholder(t *testing.T) {
	chat := &fakeChat{reply: "I do not know."}
	svc, _ := newTestService(chat)

	got, err := svc.Ask(context.Background(), "anything", 2)
	if err != nil {
		t.Fatal(err)
	}
	if got.Confidence != 0 {
		t.Errorf("confidence = %v", got.Confidence)
	}
	if len(got.Sources) != 0 {
		t.Errorf("sources = %+v", got.Sources)
	}
	if !strings.Contains(chat.msgs[1].Content, "no relevant context") {
		t.Errorf("placeholder missing:\n%s", chat.msgs[1].Content)
	}
}

func TestAskTruncatesLongAnswer(t *testing.T) {
	chat := &fakeChat{reply: strings.Repeat("a", 3000)}
	svc, _ := newTestService(chat)

	got, err := svc.Ask(context.Background(), "q", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Answer) != 2000 {
		t.Errorf("answer length = %d", len(got.Answer))
	}
}

func TestAskChatFailurePropagates(t *testing.T) {
	boom := errors.New("model down")
	svc, _ := newTestService(&fakeChat{err: boom})
	if _, err := svc.Ask(context.Background(), "q", 2); !errors.Is(err, boom) {
		t.Fatalf("expected model error, got %v", err)
	}
}

func TestResetClearsStore(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(&fakeChat{reply: "ok"})
	if _, err := svc.Ingest(ctx, "ephemeral", "doc"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 0 {
		t.Fatalf("store still has %d records", store.Len())
	}
}

func TestBuildConfidenceScore(t *testing.T) {
	if got := buildConfidenceScore(nil); got != 0 {
		t.Errorf("empty: %v", got)
	}
	if got := buildConfidenceScore([]float64{-1, 2, 0.5}); got != 0.5 {
		t.Errorf("clamped average: %v", got)
	}
	if got := buildConfidenceScore([]float64{0.333, 0.333}); got != 0.33 {
		t.Errorf("rounding: %v", got)
	}
}
