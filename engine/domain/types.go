// Package domain holds the shared types and error taxonomy for the
// knowledge-base and search pipelines.
package domain

// Chunk is a bounded contiguous slice of ingested text with a stable
// positional identity. Chunks are immutable once created and are owned
// by the vector store after insertion.
type Chunk struct {
	Text    string `json:"text"`
	Source  string `json:"source"`
	ChunkID int    `json:"chunkId"`
}

// ChunkRef identifies a chunk without carrying its text. KB answers
// cite retrieved chunks by reference.
type ChunkRef struct {
	Source  string `json:"source"`
	ChunkID int    `json:"chunkId"`
}

// KBAnswer is the response of the knowledge-base ask operation.
// Confidence reflects retrieval similarity only; it says nothing about
// the correctness of the generated answer.
type KBAnswer struct {
	Answer     string     `json:"answer"`
	Sources    []ChunkRef `json:"sources"`
	Confidence float64    `json:"confidence"`
}

// Mode is the routing decision for a search query.
type Mode string

const (
	// ModeWeb routes through live web search.
	ModeWeb Mode = "web"
	// ModeDirect answers from the model alone.
	ModeDirect Mode = "direct"
)

// Candidate is the pre-validation draft produced by the search
// pipeline. Mode records the path that actually produced the answer,
// which may differ from the router's choice when the web path falls
// back to a direct answer.
type Candidate struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Mode    Mode     `json:"mode"`
}

// SearchAnswer is the schema-conformant result of a search request.
// Only this shape ever leaves the pipeline.
type SearchAnswer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// PageSummary pairs a fetched page URL with its model-written summary.
type PageSummary struct {
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// Fallback tags which degradation path the fetch-and-summarize stage
// took, if any.
type Fallback string

const (
	FallbackNone      Fallback = "none"
	FallbackSnippet   Fallback = "snippet"
	FallbackNoResults Fallback = "no-results"
)
