package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/inquisit-ai/inquisit/engine/domain"
	"github.com/inquisit-ai/inquisit/engine/kb"
	"github.com/inquisit-ai/inquisit/pkg/metrics"
)

// maxAskK bounds the client-supplied retrieval depth.
const maxAskK = 10

type kbService interface {
	Ingest(ctx context.Context, text, source string) (kb.IngestReceipt, error)
	Ask(ctx context.Context, query string, k int) (domain.KBAnswer, error)
	Reset(ctx context.Context) error
}

type answerer interface {
	Answer(ctx context.Context, query string) (domain.Candidate, error)
}

type finalizer interface {
	Finalize(ctx context.Context, candidate domain.Candidate) (domain.SearchAnswer, error)
}

type server struct {
	kb       kbService
	pipeline answerer
	final    finalizer
	reg      *metrics.Registry
	logger   *slog.Logger
}

func newServer(kbSvc kbService, pipeline answerer, final finalizer, reg *metrics.Registry, logger *slog.Logger) *server {
	return &server{kb: kbSvc, pipeline: pipeline, final: final, reg: reg, logger: logger}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", s.reg.Handler())
	mux.HandleFunc("POST /kb/ingest", s.handleIngest)
	mux.HandleFunc("POST /kb/ask", s.handleAsk)
	mux.HandleFunc("POST /kb/reset", s.handleReset)
	mux.HandleFunc("POST /search", s.handleSearch)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// IngestRequest is the JSON body for POST /kb/ingest.
type IngestRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

func (s *server) handleIngest(w http.ResponseWriter, r *http.Request) {
	s.count("kb_ingest")
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := s.kb.Ingest(r.Context(), req.Text, req.Source)
	if err != nil {
		s.fail(w, "kb ingest", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// AskRequest is the JSON body for POST /kb/ask. K is optional; when
// present it must be in [1, 10].
type AskRequest struct {
	Query string `json:"query"`
	K     *int   `json:"k,omitempty"`
}

func (s *server) handleAsk(w http.ResponseWriter, r *http.Request) {
	s.count("kb_ask")
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	k := 0
	if req.K != nil {
		if *req.K < 1 || *req.K > maxAskK {
			writeError(w, http.StatusBadRequest, "k must be between 1 and 10")
			return
		}
		k = *req.K
	}

	answer, err := s.kb.Ask(r.Context(), req.Query, k)
	if err != nil {
		s.fail(w, "kb ask", err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.count("kb_reset")
	if err := s.kb.Reset(r.Context()); err != nil {
		s.fail(w, "kb reset", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SearchRequest is the JSON body for POST /search.
type SearchRequest struct {
	Q string `json:"q"`
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.count("search")
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidate, err := s.pipeline.Answer(r.Context(), req.Q)
	if err != nil {
		s.fail(w, "search pipeline", err)
		return
	}

	answer, err := s.final.Finalize(r.Context(), candidate)
	if err != nil {
		s.fail(w, "search finalize", err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *server) count(route string) {
	s.reg.Counter(metrics.WithLabels("http_requests_total", "route", route), "Requests per route").Inc()
}

// fail maps pipeline errors onto HTTP statuses and logs the cause.
func (s *server) fail(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", "err", err)
	s.reg.Counter(metrics.WithLabels("http_errors_total", "op", op), "Failed requests per operation").Inc()

	switch {
	case errors.Is(err, domain.ErrEmptyInput), errors.Is(err, domain.ErrBadK):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrMissingCredentials):
		writeError(w, http.StatusServiceUnavailable, "provider not configured")
	case errors.Is(err, domain.ErrValidationRepairFailed):
		writeError(w, http.StatusBadGateway, "could not produce a valid answer")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
