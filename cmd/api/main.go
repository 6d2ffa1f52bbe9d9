// Package main implements the Inquisit API server: the knowledge-base
// ingest/ask endpoints and the routed search endpoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/inquisit-ai/inquisit/engine/kb"
	"github.com/inquisit-ai/inquisit/engine/search"
	"github.com/inquisit-ai/inquisit/engine/semantic"
	"github.com/inquisit-ai/inquisit/pkg/config"
	"github.com/inquisit-ai/inquisit/pkg/embed"
	"github.com/inquisit-ai/inquisit/pkg/fetch"
	"github.com/inquisit-ai/inquisit/pkg/llm"
	"github.com/inquisit-ai/inquisit/pkg/metrics"
	"github.com/inquisit-ai/inquisit/pkg/mid"
	"github.com/inquisit-ai/inquisit/pkg/websearch"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(envOr("CONFIG_PATH", "config.yaml"))
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chat, err := llm.New(cfg)
	if err != nil {
		return fmt.Errorf("chat provider: %w", err)
	}

	embedder, err := embed.New(cfg)
	if err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}

	stores := semantic.NewManager(storeFactory(cfg))

	// A missing search key disables only the web path; the KB path and
	// direct answers still work.
	var searcher websearch.Searcher
	if tavily, err := websearch.New(cfg.TavilyKey, cfg.Search.MaxResults, cfg.Search.Depth, logger); err != nil {
		logger.Warn("web search disabled", "err", err)
		searcher = emptySearcher{}
	} else {
		searcher = tavily
	}

	kbSvc := kb.NewService(embedder, stores, chat, logger)
	pipeline := search.NewPipeline(searcher, fetch.NewFetcher(5, 5), chat, logger)
	finalizer := search.NewFinalizer(chat, logger)

	srvHandlers := newServer(kbSvc, pipeline, finalizer, metrics.New(), logger)

	handler := mid.Chain(srvHandlers.routes(),
		mid.Recover(logger),
		mid.Logger(logger),
		mid.RequestID(),
		mid.CORS(cfg.AllowedOrigin),
		mid.OTel("inquisit-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port,
			"chat_provider", cfg.Chat.Provider,
			"embed_provider", cfg.Embed.Provider,
			"store_backend", cfg.Store.Backend,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// storeFactory builds the configured vector-store backend, one store
// per embedding provider.
func storeFactory(cfg *config.Config) semantic.Factory {
	return func(providerID string) (semantic.Store, error) {
		switch cfg.Store.Backend {
		case "qdrant":
			collection := cfg.Store.Collection + "-" + sanitizeCollection(providerID)
			return semantic.NewQdrantStore(cfg.Store.QdrantAddr, collection)
		default:
			return semantic.NewMemoryStore(), nil
		}
	}
}

func sanitizeCollection(providerID string) string {
	r := strings.NewReplacer("/", "-", ":", "-", ".", "-")
	return r.Replace(providerID)
}

// emptySearcher stands in when no search credentials are configured.
type emptySearcher struct{}

func (emptySearcher) Search(context.Context, string) []websearch.Result { return nil }
