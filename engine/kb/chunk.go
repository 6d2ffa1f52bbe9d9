// Package kb implements the light retrieval knowledge base: text
// chunking, ingestion into a vector store, and retrieval-grounded
// question answering with a confidence score.
package kb

import (
	"strings"

	"github.com/inquisit-ai/inquisit/engine/domain"
)

const (
	// ChunkSize is the number of characters per chunk.
	ChunkSize = 1000
	// ChunkOverlap is the number of characters shared between
	// consecutive chunks.
	ChunkOverlap = 150
)

// ChunkText splits text into overlapping fixed-size chunks with dense
// sequential IDs. Windows are taken over raw character offsets, so a
// chunk may split mid-word. Blank input yields no chunks. Deterministic
// for identical input.
func ChunkText(text, source string) []domain.Chunk {
	clean := normalizeNewlines(text)
	if strings.TrimSpace(clean) == "" {
		return nil
	}

	step := ChunkSize - ChunkOverlap
	if step < 1 {
		step = 1
	}

	var chunks []domain.Chunk
	chunkID := 0
	for start := 0; start < len(clean); start += step {
		end := start + ChunkSize
		if end > len(clean) {
			end = len(clean)
		}
		slice := strings.TrimSpace(clean[start:end])
		if slice == "" {
			// Empty windows do not consume an ID.
			continue
		}
		chunks = append(chunks, domain.Chunk{Text: slice, Source: source, ChunkID: chunkID})
		chunkID++
	}
	return chunks
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
