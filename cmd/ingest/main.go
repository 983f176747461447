// Command ingest runs the resume ingestion worker: it consumes uploads
// from NATS and watches a drop directory for PDF files, running both
// through the extraction pipeline into Qdrant and the document store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/StafflyAI/staffly-mvp/engine/ingest"
	"github.com/StafflyAI/staffly-mvp/engine/semantic"
	"github.com/StafflyAI/staffly-mvp/pkg/docstore"
	"github.com/StafflyAI/staffly-mvp/pkg/fn"
	"github.com/StafflyAI/staffly-mvp/pkg/llm"
	"github.com/StafflyAI/staffly-mvp/pkg/metrics"
)

var met = metrics.New()

// Worker metrics.
var (
	mResumesTotal = met.Counter("staffly_ingest_resumes_total", "Resumes ingested")
	mErrorsTotal  = func(stage string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("staffly_ingest_errors_total", "stage", stage), "Ingestion errors")
	}
	mFilesProcessed = met.Counter("staffly_ingest_files_processed_total", "Drop directory files processed")
	mQueueDepth     = met.Gauge("staffly_ingest_queue_depth", "Files waiting to process")
	mLastScan       = met.Gauge("staffly_ingest_last_scan_timestamp", "Epoch of last directory scan")
	mPipelineDur    = met.Histogram("staffly_ingest_pipeline_duration_seconds", "Per-resume pipeline time", nil)
)

// Embedding dimensions per provider model.
const (
	openAIDims = 1536 // text-embedding-3-small
	ollamaDims = 768  // nomic-embed-text
)

func main() {
	var (
		natsURL     = flag.String("nats", "", "NATS server URL (empty disables the consumer)")
		qdrantAddr  = flag.String("qdrant", "localhost:6334", "Qdrant gRPC address")
		collection  = flag.String("collection", "consultants", "Qdrant collection name")
		dropDir     = flag.String("dir", "", "directory to watch for PDF resumes (empty disables)")
		resumeDir   = flag.String("resumes", "./resumes", "resume document store directory")
		ollamaURL   = flag.String("ollama", "", "Ollama base URL for local embeddings (empty uses OpenAI)")
		ollamaModel = flag.String("model", "nomic-embed-text", "Ollama embedding model")
		interval    = flag.Duration("interval", 30*time.Second, "drop directory scan interval")
		stateFile   = flag.String("state", ".ingest-state.json", "processed files state")
		metricsPort = flag.Int("metrics-port", 9091, "metrics listen port")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	met.ServeAsync(*metricsPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Provider client. Extraction always goes through OpenAI; embeddings
	// optionally through a local Ollama for offline development.
	provider := llm.New(llm.DefaultConfig(os.Getenv("OPENAI_API_KEY")))
	var embedder ingest.Embedder = provider
	dims := openAIDims
	if *ollamaURL != "" {
		embedder = llm.NewOllamaEmbedder(*ollamaURL, *ollamaModel)
		dims = ollamaDims
		log.Info("using local embeddings", "model", *ollamaModel)
	}

	// Connect Qdrant.
	vs, err := semantic.New(*qdrantAddr, *collection)
	if err != nil {
		log.Error("qdrant connect failed", "error", err)
		os.Exit(1)
	}
	defer vs.Close()
	if err := vs.EnsureCollection(ctx, dims); err != nil {
		log.Error("qdrant ensure collection failed", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Qdrant", "collection", *collection, "dims", dims)

	// Document store.
	docs, err := docstore.New(*resumeDir)
	if err != nil {
		log.Error("document store init failed", "error", err)
		os.Exit(1)
	}

	deps := ingest.Deps{
		Extractor: provider,
		Embedder:  embedder,
		Vectors:   vs,
		Docs:      docs,
		Logger:    log,
	}
	pipeline := ingest.NewPipeline(deps)

	// NATS consumer.
	if *natsURL != "" {
		nc, err := nats.Connect(*natsURL)
		if err != nil {
			log.Error("nats connect failed", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		sub, err := ingest.StartConsumer(nc, deps)
		if err != nil {
			log.Error("nats subscribe failed", "error", err)
			os.Exit(1)
		}
		defer sub.Unsubscribe()
		log.Info("consuming resumes", "subject", ingest.ResumeSubject)
	}

	if *dropDir == "" {
		if *natsURL == "" {
			log.Error("nothing to do: neither -nats nor -dir given")
			os.Exit(1)
		}
		<-ctx.Done()
		log.Info("shutting down")
		return
	}

	// Drop directory watcher.
	os.MkdirAll(*dropDir, 0o755)
	processed := loadState(*stateFile)
	log.Info("watching for resumes", "dir", *dropDir, "interval", *interval)

	scan := func() {
		mLastScan.Set(time.Now().Unix())
		entries, err := os.ReadDir(*dropDir)
		if err != nil {
			mErrorsTotal("scan").Inc()
			log.Error("readdir failed", "error", err)
			return
		}

		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") || e.Name()[0] == '.' {
				continue
			}
			info, _ := e.Info()
			key := fmt.Sprintf("%s:%d", e.Name(), info.Size())
			if processed[key] {
				continue
			}

			mQueueDepth.Inc()
			ok := processFile(ctx, filepath.Join(*dropDir, e.Name()), pipeline, log)
			mQueueDepth.Dec()
			mFilesProcessed.Inc()

			// Failed files are retried on the next scan.
			if ok {
				processed[key] = true
				saveState(*stateFile, processed)
			} else {
				log.Warn("file failed, will retry on next scan", "file", e.Name())
			}
		}
	}

	scan()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
			scan()
		}
	}
}

func processFile(ctx context.Context, path string, pipeline fn.Stage[ingest.ResumeUpload, string], log *slog.Logger) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		mErrorsTotal("read").Inc()
		log.Error("read failed", "file", path, "error", err)
		return false
	}

	upload := ingest.ResumeUpload{
		ID:       uuid.NewString(),
		FileName: filepath.Base(path),
		Data:     data,
	}

	start := time.Now()
	result := pipeline(ctx, upload)
	mPipelineDur.Since(start)

	if result.IsErr() {
		_, err := result.Unwrap()
		mErrorsTotal("pipeline").Inc()
		log.Error("pipeline error", "file", path, "error", err)
		return false
	}

	id, _ := result.Unwrap()
	mResumesTotal.Inc()
	log.Info("resume ingested", "file", filepath.Base(path), "consultant_id", id)
	return true
}

func loadState(path string) map[string]bool {
	m := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	json.Unmarshal(data, &m)
	return m
}

func saveState(path string, m map[string]bool) {
	data, _ := json.Marshal(m)
	os.WriteFile(path, data, 0o644)
}
