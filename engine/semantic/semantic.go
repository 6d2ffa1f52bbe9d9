// Package semantic owns vector storage for knowledge-base chunks. Two
// backends implement the Store contract: an in-process memory store and
// a Qdrant-backed store for deployments that need persistence across
// restarts.
package semantic

import (
	"context"

	"github.com/inquisit-ai/inquisit/engine/domain"
)

// Record is a chunk paired with its embedding, ready to store.
type Record struct {
	Vector []float32
	Chunk  domain.Chunk
}

// Hit is a search match: the stored chunk and its similarity score as
// reported by the backend.
type Hit struct {
	Chunk domain.Chunk
	Score float64
}

// Store is the vector-store contract. Implementations must be safe for
// concurrent use.
type Store interface {
	// Upsert adds records to the store. An empty batch is a no-op.
	Upsert(ctx context.Context, records []Record) error
	// Search returns up to k nearest records by cosine similarity,
	// best first. k < 1 is rejected with ErrBadK. Fewer than k stored
	// records yield fewer hits, never an error.
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)
	// Reset drops all stored records.
	Reset(ctx context.Context) error
}

func checkK(k int) error {
	if k < 1 {
		return domain.ErrBadK
	}
	return nil
}
