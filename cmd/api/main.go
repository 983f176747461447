// Package main implements the Staffly API server: consultant matching,
// team-assembly chat, resume upload and pool management.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/StafflyAI/staffly-mvp/engine/chat"
	"github.com/StafflyAI/staffly-mvp/engine/domain"
	"github.com/StafflyAI/staffly-mvp/engine/ingest"
	"github.com/StafflyAI/staffly-mvp/engine/match"
	"github.com/StafflyAI/staffly-mvp/engine/overview"
	"github.com/StafflyAI/staffly-mvp/engine/semantic"
	"github.com/StafflyAI/staffly-mvp/pkg/docstore"
	"github.com/StafflyAI/staffly-mvp/pkg/fn"
	"github.com/StafflyAI/staffly-mvp/pkg/llm"
	"github.com/StafflyAI/staffly-mvp/pkg/metrics"
	"github.com/StafflyAI/staffly-mvp/pkg/mid"
	"github.com/StafflyAI/staffly-mvp/pkg/natsutil"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string
	QdrantURL  string
	Collection string
	NATSURL    string
	ResumeDir  string
	CORSOrigin string

	OpenAIKey     string
	OpenAIBaseURL string
	ChatModel     string
	EmbedModel    string

	MatchMetric   string
	MinCertainty  float64
	PoolSize      int
	PoolNormalize bool
	DefaultLimit  int
	ListLimit     int

	MaxUploadBytes int64
}

func loadConfig() Config {
	return Config{
		Port:       envOr("PORT", "8080"),
		QdrantURL:  envOr("QDRANT_URL", "localhost:6334"),
		Collection: envOr("QDRANT_COLLECTION", "consultants"),
		NATSURL:    envOr("NATS_URL", ""),
		ResumeDir:  envOr("RESUME_DIR", "./resumes"),
		CORSOrigin: envOr("CORS_ORIGIN", "*"),

		OpenAIKey:     envOr("OPENAI_API_KEY", ""),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", ""),
		ChatModel:     envOr("CHAT_MODEL", ""),
		EmbedModel:    envOr("EMBED_MODEL", ""),

		MatchMetric:   envOr("MATCH_METRIC", "certainty"),
		MinCertainty:  envFloat("MATCH_MIN_CERTAINTY", 0.2),
		PoolSize:      envInt("MATCH_POOL_SIZE", 100),
		PoolNormalize: envOr("MATCH_POOL_NORMALIZE", "") == "true",
		DefaultLimit:  envInt("MATCH_DEFAULT_LIMIT", 5),
		ListLimit:     envInt("LIST_LIMIT", 100),

		MaxUploadBytes: int64(envInt("MAX_UPLOAD_BYTES", 10<<20)),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Qdrant ---
	profileStore, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer profileStore.Close()

	// --- Resume document store ---
	docs, err := docstore.New(cfg.ResumeDir)
	if err != nil {
		return err
	}

	// --- Language model provider ---
	llmCfg := llm.DefaultConfig(cfg.OpenAIKey)
	llmCfg.BaseURL = cfg.OpenAIBaseURL
	if cfg.ChatModel != "" {
		llmCfg.ChatModel = cfg.ChatModel
	}
	if cfg.EmbedModel != "" {
		llmCfg.EmbedModel = cfg.EmbedModel
	}
	provider := llm.New(llmCfg)

	// --- Matching ---
	matchOpts := match.DefaultOptions()
	matchOpts.MinCertainty = cfg.MinCertainty
	matchOpts.PoolSize = cfg.PoolSize
	matchOpts.PoolNormalize = cfg.PoolNormalize
	if cfg.MatchMetric == "distance" {
		matchOpts.Mode = match.ModeDistance
	}
	enricher := match.NewEnricher(docs, logger)
	matcher := match.New(provider, profileStore, enricher, matchOpts, logger)

	// --- Chat extraction ---
	extractor := chat.New(&completerAdapter{llm: provider}, "", logger)

	// --- Overview ---
	stats := overview.New(profileStore, logger)

	// --- Resume submission: NATS when configured, inline otherwise ---
	var submit resumeSubmitter
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
		submit = func(ctx context.Context, upload ingest.ResumeUpload) error {
			return natsutil.Publish(ctx, nc, ingest.ResumeSubject, upload)
		}
		logger.Info("resume ingestion via nats", "subject", ingest.ResumeSubject)
	} else {
		pipeline := ingest.NewPipeline(ingest.Deps{
			Extractor: provider,
			Embedder:  provider,
			Vectors:   profileStore,
			Docs:      docs,
			Logger:    logger,
		})
		submit = func(ctx context.Context, upload ingest.ResumeUpload) error {
			_, err := pipeline(ctx, upload).Unwrap()
			return err
		}
		logger.Info("resume ingestion inline, no nats configured")
	}

	// --- HTTP server ---
	reg := metrics.New()
	a := &api{
		match:        matcher,
		chat:         extractor,
		store:        profileStore,
		overview:     stats,
		resumes:      docs,
		submit:       submit,
		reg:          reg,
		logger:       logger,
		defaultLimit: cfg.DefaultLimit,
		listLimit:    cfg.ListLimit,
	}

	mux := http.NewServeMux()
	a.routes(mux)

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("staffly-api"),
		mid.MaxBytes(cfg.MaxUploadBytes),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
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

// --- Adapters ---

// completerAdapter adapts the provider client to the chat.Completer
// interface, converting message types.
type completerAdapter struct {
	llm *llm.Client
}

func (a *completerAdapter) Complete(ctx context.Context, system string, transcript []domain.ChatMessage) (string, error) {
	msgs := fn.Map(transcript, func(m domain.ChatMessage) llm.Message {
		return llm.Message{Role: m.Role, Content: m.Content}
	})
	return a.llm.Complete(ctx, system, msgs)
}
