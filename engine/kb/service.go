package kb

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/inquisit-ai/inquisit/engine/domain"
	"github.com/inquisit-ai/inquisit/engine/semantic"
	"github.com/inquisit-ai/inquisit/pkg/embed"
	"github.com/inquisit-ai/inquisit/pkg/llm"
)

const (
	// DefaultK is the retrieval depth when the caller does not ask for
	// a specific one.
	DefaultK = 2
	// answerMaxChars caps the generated answer.
	answerMaxChars = 2000

	defaultSource = "pasted-text"
)

const askSystemPrompt = `You are an AI assistant that helps users by providing answers based on the provided context.
Use the context to answer the question as accurately as possible.
If the context does not contain relevant information, respond with "I do not know."
Keep your answers concise (4 - 5 sentences), neutral, and avoid any marketing info.
Do not fabricate sources or cite anything that is not in the context.`

// IngestReceipt reports what one ingest call stored.
type IngestReceipt struct {
	Source     string `json:"source"`
	ChunkCount int    `json:"chunkCount"`
}

// Service ties the chunker, embedder, and vector store together for
// the knowledge-base path. Stores are keyed by embedding provider so a
// provider change never mixes embedding spaces.
type Service struct {
	embedder embed.Embedder
	stores   *semantic.Manager
	chat     llm.Client
	logger   *slog.Logger
}

// NewService wires a Service from its collaborators.
func NewService(embedder embed.Embedder, stores *semantic.Manager, chat llm.Client, logger *slog.Logger) *Service {
	return &Service{embedder: embedder, stores: stores, chat: chat, logger: logger}
}

// Ingest chunks text, embeds the chunks, and stores them. Blank text
// is rejected with ErrEmptyInput. Chunk IDs restart at 0 on every
// call; re-ingesting the same text stores an independent second copy.
func (s *Service) Ingest(ctx context.Context, text, source string) (IngestReceipt, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return IngestReceipt{}, fmt.Errorf("kb: ingest: %w", domain.ErrEmptyInput)
	}
	if source == "" {
		source = defaultSource
	}

	chunks := ChunkText(raw, source)
	if len(chunks) == 0 {
		return IngestReceipt{Source: source}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return IngestReceipt{}, fmt.Errorf("kb: embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return IngestReceipt{}, fmt.Errorf("kb: embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	records := make([]semantic.Record, len(chunks))
	for i, c := range chunks {
		records[i] = semantic.Record{Vector: vectors[i], Chunk: c}
	}

	store, err := s.stores.Get(s.embedder.ProviderID())
	if err != nil {
		return IngestReceipt{}, fmt.Errorf("kb: open store: %w", err)
	}
	if err := store.Upsert(ctx, records); err != nil {
		return IngestReceipt{}, fmt.Errorf("kb: store chunks: %w", err)
	}

	s.logger.Info("kb ingest", "source", source, "chunks", len(chunks))
	return IngestReceipt{Source: source, ChunkCount: len(chunks)}, nil
}

// Ask embeds the query with the store's embedding provider, retrieves
// the top-k chunks, and synthesizes a grounded answer. k <= 0 uses
// DefaultK. Confidence is a retrieval-quality proxy only.
func (s *Service) Ask(ctx context.Context, query string, k int) (domain.KBAnswer, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return domain.KBAnswer{}, fmt.Errorf("kb: ask: %w", domain.ErrEmptyInput)
	}
	if k <= 0 {
		k = DefaultK
	}

	store, err := s.stores.Get(s.embedder.ProviderID())
	if err != nil {
		return domain.KBAnswer{}, fmt.Errorf("kb: open store: %w", err)
	}

	vector, err := s.embedder.EmbedQuery(ctx, q)
	if err != nil {
		return domain.KBAnswer{}, fmt.Errorf("kb: embed query: %w", err)
	}

	hits, err := store.Search(ctx, vector, k)
	if err != nil {
		return domain.KBAnswer{}, fmt.Errorf("kb: search: %w", err)
	}

	answer, err := s.composeAnswer(ctx, q, buildContext(hits))
	if err != nil {
		return domain.KBAnswer{}, err
	}

	sources := make([]domain.ChunkRef, len(hits))
	scores := make([]float64, len(hits))
	for i, h := range hits {
		sources[i] = domain.ChunkRef{Source: h.Chunk.Source, ChunkID: h.Chunk.ChunkID}
		scores[i] = h.Score
	}

	return domain.KBAnswer{
		Answer:     answer,
		Sources:    sources,
		Confidence: buildConfidenceScore(scores),
	}, nil
}

// Reset clears the store for the active embedding provider.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.stores.Reset(ctx, s.embedder.ProviderID()); err != nil {
		return fmt.Errorf("kb: reset: %w", err)
	}
	s.logger.Info("kb reset", "provider", s.embedder.ProviderID())
	return nil
}

func (s *Service) composeAnswer(ctx context.Context, query, contextBlock string) (string, error) {
	if contextBlock == "" {
		contextBlock = "no relevant context"
	}
	reply, err := s.chat.Invoke(ctx, []llm.Message{
		llm.System(askSystemPrompt),
		llm.User(fmt.Sprintf("Question: %s\n\nContext:\n%s", query, contextBlock)),
	})
	if err != nil {
		return "", fmt.Errorf("kb: answer synthesis: %w", err)
	}
	answer := strings.TrimSpace(reply)
	if len(answer) > answerMaxChars {
		answer = answer[:answerMaxChars]
	}
	return answer, nil
}

// buildContext renders retrieved chunks as a labeled context block,
// one header per chunk with its 1-based rank, chunks separated by a
// visible delimiter.
func buildContext(hits []semantic.Hit) string {
	if len(hits) == 0 {
		return ""
	}
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = fmt.Sprintf("[#%d %s #%d]\n%s", i+1, h.Chunk.Source, h.Chunk.ChunkID, h.Chunk.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// buildConfidenceScore clamps each similarity to [0,1] and averages,
// rounded to 2 decimals. No retrieved chunks means confidence 0.
func buildConfidenceScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += math.Max(0, math.Min(1, s))
	}
	return math.Round(sum/float64(len(scores))*100) / 100
}
