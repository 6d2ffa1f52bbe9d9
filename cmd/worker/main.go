// Command worker consumes queued ingest jobs from NATS and forwards
// them to the API, which owns the knowledge-base store. It decouples
// bulk ingestion from request handling: producers publish at any rate
// and the worker feeds the API at its own pace.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/inquisit-ai/inquisit/engine/kb"
	"github.com/inquisit-ai/inquisit/pkg/config"
	"github.com/inquisit-ai/inquisit/pkg/natsutil"
)

func main() {
	_ = godotenv.Load()

	var (
		apiURL     = flag.String("api", "http://localhost:6001", "API base URL")
		configPath = flag.String("config", "config.yaml", "config file path")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, *apiURL, logger); err != nil {
		logger.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, apiURL string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(cfg.NATSURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("nats connect %s: %w", cfg.NATSURL, err)
	}
	defer nc.Drain()

	fwd := &forwarder{
		baseURL: apiURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}

	sub, err := natsutil.Subscribe(nc, kb.SubjectIngest, fwd.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", kb.SubjectIngest, err)
	}
	defer sub.Unsubscribe()

	logger.Info("worker started", "subject", kb.SubjectIngest, "api", apiURL)
	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}

type forwarder struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func (f *forwarder) handle(ctx context.Context, job kb.IngestJob) {
	body, err := json.Marshal(job)
	if err != nil {
		f.logger.Error("marshal job", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/kb/ingest", bytes.NewReader(body))
	if err != nil {
		f.logger.Error("build request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("ingest forward failed", "source", job.Source, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Error("api rejected ingest", "source", job.Source, "status", resp.Status)
		return
	}
	f.logger.Info("ingest forwarded", "source", job.Source)
}
