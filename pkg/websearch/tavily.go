// Package websearch provides the live web-search collaborator.
//
// Failure policy: provider and transport failures are absorbed at this
// boundary and surface as an empty result list, never as an error. The
// pipeline downstream already has to handle zero results, so one code
// path covers both "nothing found" and "provider down".
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/inquisit-ai/inquisit/engine/domain"
	"github.com/inquisit-ai/inquisit/pkg/resilience"
)

const (
	tavilyBaseURL = "https://api.tavily.com"
	// maxSnippetLen caps result snippets before they reach the pipeline.
	maxSnippetLen = 220
	maxResultsCap = 5
)

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher is the web-search collaborator contract.
type Searcher interface {
	Search(ctx context.Context, query string) []Result
}

// Client calls the Tavily search API.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	depth      string
	client     *http.Client
	breaker    *resilience.Breaker
	logger     *slog.Logger
}

// New creates a Tavily client. The API key is required.
func New(apiKey string, maxResults int, depth string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("websearch: tavily: %w", domain.ErrMissingCredentials)
	}
	if maxResults <= 0 || maxResults > maxResultsCap {
		maxResults = maxResultsCap
	}
	if depth == "" {
		depth = "basic"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    tavilyBaseURL,
		maxResults: maxResults,
		depth:      depth,
		client:     &http.Client{Timeout: 15 * time.Second},
		breaker:    resilience.NewBreaker(resilience.DefaultBreakerOpts),
		logger:     logger,
	}, nil
}

// WithBaseURL points the client at a different endpoint. Used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

type tavilyRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
	IncludeImages bool   `json:"include_images"`
}

type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// Search implements Searcher. An empty query returns an empty list
// without calling the provider.
func (c *Client) Search(ctx context.Context, query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var results []Result
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		results, err = c.search(ctx, query)
		return err
	})
	if err != nil {
		c.logger.Warn("web search failed, continuing with no results", "err", err)
		return nil
	}
	return results
}

func (c *Client) search(ctx context.Context, query string) ([]Result, error) {
	body, _ := json.Marshal(tavilyRequest{
		Query:         query,
		SearchDepth:   c.depth,
		MaxResults:    c.maxResults,
		IncludeAnswer: false,
		IncludeImages: false,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily search: status %d", resp.StatusCode)
	}

	var out tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tavily search decode: %w", err)
	}

	results := make([]Result, 0, len(out.Results))
	for _, r := range out.Results {
		if len(results) == maxResultsCap {
			break
		}
		url := strings.TrimSpace(r.URL)
		if url == "" {
			continue
		}
		results = append(results, Result{
			Title:   normalizeTitle(r.Title),
			URL:     url,
			Snippet: clipSnippet(r.Content),
		})
	}
	return results, nil
}

func normalizeTitle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Untitled"
	}
	return s
}

func clipSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxSnippetLen {
		return s[:maxSnippetLen] + "..."
	}
	return s
}
