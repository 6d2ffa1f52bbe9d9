package search

import (
	"context"
	"errors"
	"testing"

	"github.com/inquisit-ai/inquisit/engine/domain"
	"github.com/inquisit-ai/inquisit/pkg/llm"
)

type repairChat struct {
	reply  string
	err    error
	called bool
}

func (r *repairChat) Invoke(context.Context, []llm.Message) (string, error) {
	r.called = true
	return r.reply, r.err
}

func TestFinalizeValidCandidatePassesThrough(t *testing.T) {
	chat := &repairChat{}
	f := NewFinalizer(chat, discardLogger())

	got, err := f.Finalize(context.Background(), domain.Candidate{
		Answer:  "the answer",
		Sources: []string{"https://a.test", "http://b.test/page"},
		Mode:    domain.ModeWeb,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Answer != "the answer" || len(got.Sources) != 2 {
		t.Errorf("got %+v", got)
	}
	if chat.called {
		t.Error("valid candidate must not trigger a repair call")
	}
}

func TestFinalizeNilSourcesBecomesEmptyArray(t *testing.T) {
	f := NewFinalizer(&repairChat{}, discardLogger())

	got, err := f.Finalize(context.Background(), domain.Candidate{Answer: "ok", Sources: nil})
	if err != nil {
		t.Fatal(err)
	}
	if got.Sources == nil || len(got.Sources) != 0 {
		t.Errorf("sources = %#v", got.Sources)
	}
}

func TestFinalizeRepairsInvalidCandidate(t *testing.T) {
	chat := &repairChat{reply: `Here you go: {"answer": "fixed", "sources": ["https://a.test"]}`}
	f := NewFinalizer(chat, discardLogger())

	got, err := f.Finalize(context.Background(), domain.Candidate{
		Answer:  "draft",
		Sources: []string{"not a url"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !chat.called {
		t.Fatal("expected a repair call")
	}
	if got.Answer != "fixed" || len(got.Sources) != 1 || got.Sources[0] != "https://a.test" {
		t.Errorf("got %+v", got)
	}
}

func TestFinalizeRepairFailureIsTerminal(t *testing.T) {
	chat := &repairChat{reply: "still not json"}
	f := NewFinalizer(chat, discardLogger())

	_, err := f.Finalize(context.Background(), domain.Candidate{Answer: "", Sources: []string{}})
	if !errors.Is(err, domain.ErrValidationRepairFailed) {
		t.Fatalf("expected ErrValidationRepairFailed, got %v", err)
	}
}

func TestFinalizeRepairCallErrorIsTerminal(t *testing.T) {
	chat := &repairChat{err: errors.New("model down")}
	f := NewFinalizer(chat, discardLogger())

	_, err := f.Finalize(context.Background(), domain.Candidate{Answer: "", Sources: []string{}})
	if !errors.Is(err, domain.ErrValidationRepairFailed) {
		t.Fatalf("expected ErrValidationRepairFailed, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	ok := domain.SearchAnswer{Answer: "a", Sources: []string{"https://x.test"}}
	if err := Validate(ok); err != nil {
		t.Errorf("valid answer rejected: %v", err)
	}
	if err := Validate(domain.SearchAnswer{Answer: "  ", Sources: []string{}}); err == nil {
		t.Error("blank answer accepted")
	}
	if err := Validate(domain.SearchAnswer{Answer: "a", Sources: nil}); err == nil {
		t.Error("nil sources accepted")
	}
	if err := Validate(domain.SearchAnswer{Answer: "a", Sources: []string{"ftp://x.test"}}); err == nil {
		t.Error("non-http source accepted")
	}
	if err := Validate(domain.SearchAnswer{Answer: "a", Sources: []string{"just text"}}); err == nil {
		t.Error("non-url source accepted")
	}
}

func TestParseRepairText(t *testing.T) {
	got := ParseRepairText(`noise before {"answer": " hi ", "sources": ["https://a.test", 42]} noise after`)
	if got.Answer != "hi" {
		t.Errorf("answer = %q", got.Answer)
	}
	if len(got.Sources) != 2 || got.Sources[0] != "https://a.test" || got.Sources[1] != "42" {
		t.Errorf("sources = %v", got.Sources)
	}

	// braces inside strings do not end the object early
	got = ParseRepairText(`{"answer": "a } b", "sources": []}`)
	if got.Answer != "a } b" {
		t.Errorf("answer = %q", got.Answer)
	}

	// sources not array-shaped degrades to empty array
	got = ParseRepairText(`{"answer": "a", "sources": "https://a.test"}`)
	if len(got.Sources) != 0 {
		t.Errorf("sources = %v", got.Sources)
	}

	// malformed json degrades to a zero answer, not a crash
	got = ParseRepairText(`{"answer": `)
	if got.Answer != "" || len(got.Sources) != 0 {
		t.Errorf("got %+v", got)
	}
	got = ParseRepairText("no object here")
	if got.Answer != "" || got.Sources == nil {
		t.Errorf("got %+v", got)
	}
}
