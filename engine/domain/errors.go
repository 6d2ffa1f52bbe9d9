package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the core pipelines.
var (
	// ErrEmptyInput rejects blank queries and blank ingest text before
	// any I/O happens.
	ErrEmptyInput = errors.New("empty input")
	// ErrMissingCredentials means a provider API key is absent. Fatal
	// for that provider's calls only.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrBadK rejects similarity searches with k < 1.
	ErrBadK = errors.New("k must be >= 1")

	// Per-URL fetch failures. Always isolated inside the fan-out stage,
	// never abort sibling fetches.
	ErrInvalidURL             = errors.New("invalid url")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrFetchFailed            = errors.New("fetch failed")

	// ErrValidationRepairFailed is terminal for a search request: the
	// candidate failed schema validation and the repair attempt did too.
	ErrValidationRepairFailed = errors.New("validation repair failed")
)

// ProviderError wraps a failure from a named external provider.
type ProviderError struct {
	Provider string
	Op       string
	Wrapped  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Wrapped)
}

func (e *ProviderError) Unwrap() error { return e.Wrapped }

// NewProviderError wraps err with provider and operation context.
func NewProviderError(provider, op string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Wrapped: err}
}
