package search

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/inquisit-ai/inquisit/engine/domain"
	"github.com/inquisit-ai/inquisit/pkg/fetch"
	"github.com/inquisit-ai/inquisit/pkg/fn"
	"github.com/inquisit-ai/inquisit/pkg/llm"
	"github.com/inquisit-ai/inquisit/pkg/websearch"
)

const (
	// topResults bounds how many search hits are fetched and summarized.
	topResults = 5
	// summarizeInputMax clips page text before the summarize call.
	summarizeInputMax = 4000
	// summaryMaxChars caps a normalized summary.
	summaryMaxChars = 2500
)

const summarizeSystemPrompt = `You are a helpful assistant to write short accurate summaries.
Guidelines:
- Be factual and neutral, avoid marketing language.
- 5-8 sentences, no lists unless absolutely necessary.
- Do not invent sources; you only summarize the provided text.
- Keep it readable for beginners.`

const composeSystemPrompt = `You answer questions using only the provided page summaries.
Guidelines:
- Use only facts present in the summaries; never invent facts or sources.
- 5-8 sentences, neutral tone.
- If the summaries do not cover the question, say so plainly.`

const directSystemPrompt = `You answer questions briefly for a beginner audience.
Admit uncertainty when you are not sure instead of guessing.`

// Pipeline runs the routed search path: route, then either a direct
// model answer or web search with parallel fetch-and-summarize and a
// cited compose step.
type Pipeline struct {
	searcher websearch.Searcher
	opener   fetch.Opener
	chat     llm.Client
	logger   *slog.Logger
}

// NewPipeline wires a Pipeline from its collaborators.
func NewPipeline(searcher websearch.Searcher, opener fetch.Opener, chat llm.Client, logger *slog.Logger) *Pipeline {
	return &Pipeline{searcher: searcher, opener: opener, chat: chat, logger: logger}
}

// searched is the state after the web-search stage.
type searched struct {
	query   string
	results []websearch.Result
}

// summarized is the state after the fetch-and-summarize stage.
type summarized struct {
	query     string
	summaries []domain.PageSummary
	fallback  domain.Fallback
}

// Answer routes the query and produces a pre-validation candidate.
// Blank queries fail with ErrEmptyInput before any I/O.
func (p *Pipeline) Answer(ctx context.Context, query string) (domain.Candidate, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return domain.Candidate{}, fmt.Errorf("search: %w", domain.ErrEmptyInput)
	}

	if Route(q) == domain.ModeDirect {
		return p.composeDirect(ctx, q)
	}

	run := fn.Then(
		fn.Then(
			fn.TracedStage("search.web_search", p.searchStage()),
			fn.TracedStage("search.fetch_summarize", p.summarizeStage()),
		),
		fn.TracedStage("search.compose", p.composeStage()),
	)
	return run(ctx, q).Unwrap()
}

// searchStage queries the web-search collaborator. Provider failures
// are absorbed there to an empty result list, so this stage never
// fails.
func (p *Pipeline) searchStage() fn.Stage[string, searched] {
	return func(ctx context.Context, q string) fn.Result[searched] {
		results := p.searcher.Search(ctx, q)
		p.logger.Info("web search", "query", q, "results", len(results))
		return fn.Ok(searched{query: q, results: results})
	}
}

// summarizeStage fetches and summarizes the top results in parallel.
// Every task settles; failures are dropped and successes keep their
// original result order. When all tasks fail, raw snippets stand in
// for summaries.
func (p *Pipeline) summarizeStage() fn.Stage[searched, summarized] {
	return func(ctx context.Context, s searched) fn.Result[summarized] {
		if len(s.results) == 0 {
			return fn.Ok(summarized{query: s.query, fallback: domain.FallbackNoResults})
		}

		top := s.results
		if len(top) > topResults {
			top = top[:topResults]
		}

		settled := fn.ParMapResult(top, topResults, func(r websearch.Result) fn.Result[domain.PageSummary] {
			page, err := p.opener.Open(ctx, r.URL)
			if err != nil {
				p.logger.Warn("page fetch failed", "url", r.URL, "error", err)
				return fn.Err[domain.PageSummary](err)
			}
			summary, err := p.summarize(ctx, page.Content)
			if err != nil {
				p.logger.Warn("summarize failed", "url", page.URL, "error", err)
				return fn.Err[domain.PageSummary](err)
			}
			return fn.Ok(domain.PageSummary{URL: page.URL, Summary: summary})
		})

		summaries := fn.Successes(settled)
		if len(summaries) > 0 {
			return fn.Ok(summarized{query: s.query, summaries: summaries, fallback: domain.FallbackNone})
		}

		var snippets []domain.PageSummary
		for _, r := range top {
			text := strings.TrimSpace(r.Snippet)
			if text == "" {
				text = strings.TrimSpace(r.Title)
			}
			if text == "" {
				continue
			}
			snippets = append(snippets, domain.PageSummary{URL: r.URL, Summary: text})
		}
		p.logger.Info("all fetches failed, using snippets", "query", s.query, "snippets", len(snippets))
		return fn.Ok(summarized{query: s.query, summaries: snippets, fallback: domain.FallbackSnippet})
	}
}

// composeStage synthesizes the cited answer. With no summaries at all
// it degrades to a direct model answer, tagged direct even though the
// router chose web.
func (p *Pipeline) composeStage() fn.Stage[summarized, domain.Candidate] {
	return func(ctx context.Context, s summarized) fn.Result[domain.Candidate] {
		if len(s.summaries) == 0 {
			return fn.FromPair(p.composeDirect(ctx, s.query))
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Question: %s\n\nPage summaries:\n", s.query)
		sources := make([]string, len(s.summaries))
		for i, ps := range s.summaries {
			fmt.Fprintf(&b, "\n[%d] %s\n%s\n", i+1, ps.URL, ps.Summary)
			sources[i] = ps.URL
		}

		reply, err := p.chat.Invoke(ctx, []llm.Message{
			llm.System(composeSystemPrompt),
			llm.User(b.String()),
		})
		if err != nil {
			return fn.Errf[domain.Candidate]("search: compose: %w", err)
		}
		return fn.Ok(domain.Candidate{
			Answer:  strings.TrimSpace(reply),
			Sources: sources,
			Mode:    domain.ModeWeb,
		})
	}
}

func (p *Pipeline) composeDirect(ctx context.Context, query string) (domain.Candidate, error) {
	reply, err := p.chat.Invoke(ctx, []llm.Message{
		llm.System(directSystemPrompt),
		llm.User(query),
	})
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("search: direct answer: %w", err)
	}
	return domain.Candidate{
		Answer:  strings.TrimSpace(reply),
		Sources: []string{},
		Mode:    domain.ModeDirect,
	}, nil
}

// summarize asks the model for a short summary of page text, clipped
// on the way in and normalized on the way out.
func (p *Pipeline) summarize(ctx context.Context, text string) (string, error) {
	if len(text) > summarizeInputMax {
		text = text[:summarizeInputMax]
	}
	reply, err := p.chat.Invoke(ctx, []llm.Message{
		llm.System(summarizeSystemPrompt),
		llm.User("Summarize the following content for a beginner friendly audience.\n\nFocus on key facts and remove fluff\n\nTEXT:\n\n" + text),
	})
	if err != nil {
		return "", err
	}
	return normalizeSummary(reply), nil
}

var (
	trailingSpaceBeforeNewline = regexp.MustCompile(`\s+\n`)
	excessBlankLines           = regexp.MustCompile(`\n{3,}`)
)

func normalizeSummary(s string) string {
	t := trailingSpaceBeforeNewline.ReplaceAllString(s, "\n")
	t = excessBlankLines.ReplaceAllString(t, "\n\n")
	t = strings.TrimSpace(t)
	if len(t) > summaryMaxChars {
		t = t[:summaryMaxChars]
	}
	return t
}
