// Package fetch retrieves web pages and reduces them to plain text for
// summarization. Only http/https URLs with text-like content types are
// accepted; extracted text is capped at MaxContentChars.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/inquisit-ai/inquisit/engine/domain"
)

const (
	// MaxContentChars caps extracted page text.
	MaxContentChars = 8000
	// maxBodyBytes caps the raw response read; HTML shrinks a lot during
	// extraction so the raw cap is much larger than MaxContentChars.
	maxBodyBytes = 2 << 20
	// fetchTimeout bounds a single page fetch, independent of the
	// overall request deadline.
	fetchTimeout = 10 * time.Second

	userAgent = "inquisit/1.0 (+answer-pipeline)"
)

// Page is a fetched page reduced to plain text.
type Page struct {
	URL     string
	Content string
}

// Opener is the page-fetcher collaborator contract.
type Opener interface {
	Open(ctx context.Context, rawURL string) (Page, error)
}

// Fetcher fetches pages over HTTP with an outbound rate limit shared
// across all calls.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewFetcher creates a Fetcher allowing rps requests per second with
// the given burst.
func NewFetcher(rps float64, burst int) *Fetcher {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = int(rps)
	}
	return &Fetcher{
		client:  &http.Client{Timeout: fetchTimeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// ValidateURL parses and normalizes a URL, rejecting non-http(s)
// schemes before any network call.
func ValidateURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidURL, raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", domain.ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: missing host", domain.ErrInvalidURL)
	}
	return parsed.String(), nil
}

// Open implements Opener.
func (f *Fetcher) Open(ctx context.Context, rawURL string) (Page, error) {
	normalized, err := ValidateURL(rawURL)
	if err != nil {
		return Page{}, err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized, nil)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, fmt.Errorf("%w: status %d from %s", domain.ErrFetchFailed, resp.StatusCode, normalized)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text") {
		return Page{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedContentType, contentType)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, fmt.Errorf("%w: read body: %v", domain.ErrFetchFailed, err)
	}

	text := string(raw)
	if strings.Contains(contentType, "text/html") {
		text = ExtractText(text)
	}
	text = collapseWhitespace(text)
	if len(text) > MaxContentChars {
		text = text[:MaxContentChars]
	}

	return Page{URL: normalized, Content: text}, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
