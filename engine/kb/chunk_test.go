package kb

import (
	"strings"
	"testing"
)

func TestChunkTextBlankInput(t *testing.T) {
	if got := ChunkText("", "doc"); got != nil {
		t.Errorf("empty input: got %v", got)
	}
	if got := ChunkText("  \n\r\n\t ", "doc"); got != nil {
		t.Errorf("whitespace input: got %v", got)
	}
}

func TestChunkTextShortInputSingleChunk(t *testing.T) {
	chunks := ChunkText("  hello world  ", "doc")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "hello world" {
		t.Errorf("text = %q", chunks[0].Text)
	}
	if chunks[0].Source != "doc" || chunks[0].ChunkID != 0 {
		t.Errorf("meta = %q/%d", chunks[0].Source, chunks[0].ChunkID)
	}
}

func TestChunkTextDenseSequentialIDs(t *testing.T) {
	text := strings.Repeat("abcdefghij", 250) // 2500 chars
	chunks := ChunkText(text, "doc")

	// step = 850: windows at 0, 850, 1700.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkID != i {
			t.Errorf("chunk %d has id %d", i, c.ChunkID)
		}
		if strings.TrimSpace(c.Text) == "" {
			t.Errorf("chunk %d is blank", i)
		}
	}
	if len(chunks[0].Text) != ChunkSize {
		t.Errorf("first chunk length = %d", len(chunks[0].Text))
	}
}

func TestChunkTextOverlap(t *testing.T) {
	text := strings.Repeat("x", 900) + strings.Repeat("y", 900)
	chunks := ChunkText(text, "doc")
	if len(chunks) < 2 {
		t.Fatalf("expected overlapping chunks, got %d", len(chunks))
	}
	// The second window starts at 850, inside the first window's range.
	tail := chunks[0].Text[len(chunks[0].Text)-ChunkOverlap:]
	head := chunks[1].Text[:ChunkOverlap]
	if tail != head {
		t.Error("consecutive chunks do not share the overlap region")
	}
}

func TestChunkTextNormalizesNewlines(t *testing.T) {
	chunks := ChunkText("line one\r\nline two\rline three", "doc")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if strings.Contains(chunks[0].Text, "\r") {
		t.Errorf("carriage returns survived: %q", chunks[0].Text)
	}
	if got := strings.Count(chunks[0].Text, "\n"); got != 2 {
		t.Errorf("expected 2 newlines, got %d", got)
	}
}

func TestChunkTextDeterministic(t *testing.T) {
	text := strings.Repeat("the quick brown fox ", 120)
	a := ChunkText(text, "doc")
	b := ChunkText(text, "doc")
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs", i)
		}
	}
}
