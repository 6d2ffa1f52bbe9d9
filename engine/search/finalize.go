package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/inquisit-ai/inquisit/engine/domain"
	"github.com/inquisit-ai/inquisit/pkg/llm"
)

const repairSystemPrompt = `You fix JSON objects to match a given schema.
Respond only with a valid JSON object.
Schema: { answer: string, sources: string[] (urls as strings) }`

// Finalizer enforces the output schema on a candidate answer. A
// candidate that fails validation gets exactly one model-assisted
// repair attempt; a second failure is terminal for the request.
type Finalizer struct {
	chat   llm.Client
	logger *slog.Logger
}

// NewFinalizer wires a Finalizer.
func NewFinalizer(chat llm.Client, logger *slog.Logger) *Finalizer {
	return &Finalizer{chat: chat, logger: logger}
}

// Finalize validates the candidate and repairs it if needed. Only a
// schema-conformant SearchAnswer ever leaves here.
func (f *Finalizer) Finalize(ctx context.Context, candidate domain.Candidate) (domain.SearchAnswer, error) {
	draft := domain.SearchAnswer{
		Answer:  candidate.Answer,
		Sources: candidate.Sources,
	}
	if draft.Sources == nil {
		draft.Sources = []string{}
	}

	verr := Validate(draft)
	if verr == nil {
		return draft, nil
	}
	f.logger.Warn("candidate failed validation, attempting repair", "error", verr)

	repaired, err := f.repair(ctx, draft)
	if err != nil {
		return domain.SearchAnswer{}, fmt.Errorf("search: %w: %v", domain.ErrValidationRepairFailed, err)
	}
	if err := Validate(repaired); err != nil {
		return domain.SearchAnswer{}, fmt.Errorf("search: %w: %v", domain.ErrValidationRepairFailed, err)
	}
	return repaired, nil
}

// Validate checks the output schema: a non-blank answer and sources
// that are all absolute http(s) URLs.
func Validate(a domain.SearchAnswer) error {
	if strings.TrimSpace(a.Answer) == "" {
		return fmt.Errorf("answer is blank")
	}
	if a.Sources == nil {
		return fmt.Errorf("sources is not an array")
	}
	for i, s := range a.Sources {
		parsed, err := url.Parse(s)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("sources[%d] is not a url: %q", i, s)
		}
	}
	return nil
}

// repair asks the model to coerce the draft into the target shape and
// parses whatever comes back tolerantly.
func (f *Finalizer) repair(ctx context.Context, draft domain.SearchAnswer) (domain.SearchAnswer, error) {
	encoded, err := json.Marshal(draft)
	if err != nil {
		return domain.SearchAnswer{}, err
	}

	reply, err := f.chat.Invoke(ctx, []llm.Message{
		llm.System(repairSystemPrompt),
		llm.User("Make this exactly match the schema. Ensure sources is an array of URL strings.\nInput JSON:\n" + string(encoded)),
	})
	if err != nil {
		return domain.SearchAnswer{}, err
	}
	return ParseRepairText(reply), nil
}

// ParseRepairText extracts the first balanced JSON object from model
// output and normalizes it into a SearchAnswer. Malformed input yields
// a zero-valued answer with an empty source list rather than an error;
// the caller re-validates.
func ParseRepairText(text string) domain.SearchAnswer {
	var raw map[string]any
	if obj := firstJSONObject(text); obj != "" {
		// Tolerant parse: garbage degrades to an empty object.
		if err := json.Unmarshal([]byte(obj), &raw); err != nil {
			raw = nil
		}
	}

	out := domain.SearchAnswer{Sources: []string{}}
	if answer, ok := raw["answer"]; ok {
		out.Answer = strings.TrimSpace(fmt.Sprint(answer))
	}
	if list, ok := raw["sources"].([]any); ok {
		for _, item := range list {
			out.Sources = append(out.Sources, strings.TrimSpace(fmt.Sprint(item)))
		}
	}
	return out
}

// firstJSONObject returns the first balanced {...} region of s, or ""
// when none exists. Braces inside JSON strings do not affect the
// balance count.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
