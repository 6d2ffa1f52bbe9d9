// Command ingest loads text, markdown, and PDF files into the
// knowledge base. It either posts files to the API synchronously or
// publishes them to NATS for the worker to pick up. With -watch it
// stays running and ingests files as they appear.
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
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ledongthuc/pdf"
	"github.com/nats-io/nats.go"

	"github.com/inquisit-ai/inquisit/engine/kb"
	"github.com/inquisit-ai/inquisit/pkg/natsutil"
)

func main() {
	var (
		apiURL  = flag.String("api", "http://localhost:6001", "API base URL")
		natsURL = flag.String("nats", nats.DefaultURL, "NATS URL for -async mode")
		source  = flag.String("source", "", "source label (defaults to the file name)")
		async   = flag.Bool("async", false, "publish to NATS instead of calling the API")
		watch   = flag.String("watch", "", "watch a directory and ingest new files")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink ingestSink
	if *async {
		nc, err := nats.Connect(*natsURL)
		if err != nil {
			log.Error("nats connect failed", "url", *natsURL, "error", err)
			os.Exit(1)
		}
		defer nc.Drain()
		sink = &natsSink{nc: nc}
	} else {
		sink = &apiSink{baseURL: *apiURL, client: &http.Client{Timeout: 60 * time.Second}}
	}

	if *watch != "" {
		if err := watchDir(ctx, *watch, sink, log); err != nil {
			log.Error("watch failed", "dir", *watch, "error", err)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: ingest [flags] file...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	failed := 0
	for _, path := range flag.Args() {
		if err := ingestFile(ctx, path, *source, sink); err != nil {
			log.Error("ingest failed", "file", path, "error", err)
			failed++
			continue
		}
		log.Info("ingested", "file", path)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// ingestSink is where extracted text goes: the API directly, or NATS.
type ingestSink interface {
	Send(ctx context.Context, job kb.IngestJob) error
}

type apiSink struct {
	baseURL string
	client  *http.Client
}

func (s *apiSink) Send(ctx context.Context, job kb.IngestJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/kb/ingest", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api returned %s", resp.Status)
	}
	return nil
}

type natsSink struct {
	nc *nats.Conn
}

func (s *natsSink) Send(ctx context.Context, job kb.IngestJob) error {
	return natsutil.Publish(ctx, s.nc, kb.SubjectIngest, job)
}

func ingestFile(ctx context.Context, path, source string, sink ingestSink) error {
	text, err := extractText(path)
	if err != nil {
		return err
	}
	if source == "" {
		source = filepath.Base(path)
	}
	return sink.Send(ctx, kb.IngestJob{Text: text, Source: source})
}

// extractText reads a file as plain text. PDFs go through the pdf
// reader; everything else is read as-is.
func extractText(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		f, r, err := pdf.Open(path)
		if err != nil {
			return "", fmt.Errorf("open pdf: %w", err)
		}
		defer f.Close()

		rd, err := r.GetPlainText()
		if err != nil {
			return "", fmt.Errorf("extract pdf text: %w", err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rd); err != nil {
			return "", fmt.Errorf("read pdf text: %w", err)
		}
		return buf.String(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ingestableExt filters watch events to file types worth ingesting.
func ingestableExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf":
		return true
	}
	return false
}

func watchDir(ctx context.Context, dir string, sink ingestSink, log *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	log.Info("watching", "dir", dir)

	// Writers may still be appending when the create event fires, so
	// debounce each path briefly before reading it.
	pending := make(map[string]*time.Timer)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !ingestableExt(event.Name) {
				continue
			}
			path := event.Name
			if t, ok := pending[path]; ok {
				t.Stop()
			}
			pending[path] = time.AfterFunc(500*time.Millisecond, func() {
				if err := ingestFile(ctx, path, "", sink); err != nil {
					log.Error("ingest failed", "file", path, "error", err)
					return
				}
				log.Info("ingested", "file", path)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error", "error", err)
		}
	}
}
