// Package ingest turns uploaded resume PDFs into searchable consultant
// profiles: validation, text extraction, structured extraction via the
// language model, embedding, and storage.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/StafflyAI/staffly-mvp/engine/domain"
	"github.com/StafflyAI/staffly-mvp/engine/semantic"
	"github.com/StafflyAI/staffly-mvp/pkg/fn"
	"github.com/StafflyAI/staffly-mvp/pkg/llm"
)

// ProfileExtractor runs structured extraction over plain resume text.
type ProfileExtractor interface {
	ExtractProfile(ctx context.Context, resumeText string) (llm.ExtractedProfile, error)
}

// Embedder produces the embedding vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorWriter persists profile records to the vector store.
type VectorWriter interface {
	UpsertProfiles(ctx context.Context, records []semantic.ProfileRecord) error
}

// DocWriter persists the original PDF.
type DocWriter interface {
	Save(id string, data []byte) error
}

// Deps holds the external dependencies for the ingestion pipeline.
type Deps struct {
	Extractor ProfileExtractor
	Embedder  Embedder
	Vectors   VectorWriter
	Docs      DocWriter
	Logger    *slog.Logger
}

// --- Pipeline stages ---

// Validate checks an upload before any expensive work.
var Validate fn.Stage[ResumeUpload, ResumeUpload] = func(_ context.Context, up ResumeUpload) fn.Result[ResumeUpload] {
	if err := domain.ValidateID(up.ID); err != nil {
		return fn.Err[ResumeUpload](err)
	}
	if len(up.Data) == 0 {
		return fn.Err[ResumeUpload](fmt.Errorf("ingest: %w", domain.ErrEmptyResume))
	}
	return fn.Ok(up)
}

// ExtractText pulls the plain text out of the PDF.
var ExtractText fn.Stage[ResumeUpload, ExtractedResume] = func(_ context.Context, up ResumeUpload) fn.Result[ExtractedResume] {
	text, err := pdfText(up.Data)
	if err != nil {
		return fn.Err[ExtractedResume](err)
	}
	return fn.Ok(ExtractedResume{ResumeUpload: up, Text: text})
}

// NewExtractProfile creates the stage that turns resume text into a
// structured profile via the language model.
func NewExtractProfile(ex ProfileExtractor) fn.Stage[ExtractedResume, ProfileDoc] {
	return func(ctx context.Context, doc ExtractedResume) fn.Result[ProfileDoc] {
		extracted, err := ex.ExtractProfile(ctx, doc.Text)
		if err != nil {
			return fn.Err[ProfileDoc](fmt.Errorf("ingest: extract profile: %w", err))
		}
		profile := profileFromExtraction(doc.ID, extracted)
		return fn.Ok(ProfileDoc{
			ResumeUpload: doc.ResumeUpload,
			Profile:      profile,
			Text:         profileText(profile),
		})
	}
}

// NewEmbed creates the stage that embeds the profile text.
func NewEmbed(embedder Embedder) fn.Stage[ProfileDoc, EmbeddedProfile] {
	return func(ctx context.Context, doc ProfileDoc) fn.Result[EmbeddedProfile] {
		vec, err := embedder.Embed(ctx, doc.Text)
		if err != nil {
			return fn.Err[EmbeddedProfile](fmt.Errorf("ingest: embed: %w", err))
		}
		return fn.Ok(EmbeddedProfile{ProfileDoc: doc, Embedding: vec})
	}
}

// NewStore creates the stage that persists the vector record and the
// original PDF. The PDF write happens second: a consultant without a
// stored resume is still searchable, the reverse is useless.
func NewStore(vectors VectorWriter, docs DocWriter) fn.Stage[EmbeddedProfile, string] {
	return func(ctx context.Context, doc EmbeddedProfile) fn.Result[string] {
		record := semantic.ProfileRecord{Profile: doc.Profile, Embedding: doc.Embedding}
		if err := vectors.UpsertProfiles(ctx, []semantic.ProfileRecord{record}); err != nil {
			return fn.Err[string](fmt.Errorf("ingest: vector upsert: %w", err))
		}
		if docs != nil {
			if err := docs.Save(doc.ID, doc.Data); err != nil {
				return fn.Err[string](fmt.Errorf("ingest: save pdf: %w", err))
			}
		}
		return fn.Ok(doc.ID)
	}
}

// LoggedTap returns a stage that logs entry and exit with duration.
func LoggedTap[T any](name string, log *slog.Logger) fn.Stage[T, T] {
	return func(ctx context.Context, t T) fn.Result[T] {
		log.Info("stage.enter", "stage", name)
		start := time.Now()
		defer func() {
			log.Info("stage.exit", "stage", name, "duration", time.Since(start))
		}()
		return fn.Ok(t)
	}
}

// NewPipeline wires the full ingestion pipeline.
func NewPipeline(deps Deps) fn.Stage[ResumeUpload, string] {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	validated := fn.Then(LoggedTap[ResumeUpload]("validate", log), Validate)
	text := fn.Then(validated, fn.Then(LoggedTap[ResumeUpload]("pdf-text", log), ExtractText))
	profiled := fn.Then(text, fn.Then(LoggedTap[ExtractedResume]("extract", log), NewExtractProfile(deps.Extractor)))
	embedded := fn.Then(profiled, fn.Then(LoggedTap[ProfileDoc]("embed", log), NewEmbed(deps.Embedder)))
	stored := fn.Then(embedded, fn.Then(LoggedTap[EmbeddedProfile]("store", log), NewStore(deps.Vectors, deps.Docs)))

	return fn.TracedStage("ingest.pipeline", stored)
}

// dlqMessage is published to the DLQ on repeated failure. The PDF
// bytes ride along so the upload can be replayed.
type dlqMessage struct {
	Upload  ResumeUpload `json:"upload"`
	Error   string       `json:"error"`
	Retries int          `json:"retries"`
}

// StartConsumer subscribes to the resume subject and runs uploads
// through the pipeline with retry and DLQ support.
func StartConsumer(nc *nats.Conn, deps Deps) (*nats.Subscription, error) {
	pipeline := NewPipeline(deps)
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return nc.Subscribe(ResumeSubject, func(msg *nats.Msg) {
		var upload ResumeUpload
		if err := json.Unmarshal(msg.Data, &upload); err != nil {
			log.Error("ingest: unmarshal failed", "error", err)
			return
		}

		ctx := context.Background()

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get("X-Retry-Count"); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		result := pipeline(ctx, upload)
		if result.IsErr() {
			_, pipeErr := result.Unwrap()
			retries++
			log.Error("ingest: pipeline failed",
				"error", pipeErr,
				"resume_id", upload.ID,
				"retry", retries,
			)

			if retries >= MaxRetries {
				dlq := dlqMessage{Upload: upload, Error: pipeErr.Error(), Retries: retries}
				data, _ := json.Marshal(dlq)
				if err := nc.Publish(DLQSubject, data); err != nil {
					log.Error("ingest: DLQ publish failed", "error", err)
				}
			} else {
				retryMsg := nats.NewMsg(ResumeSubject)
				retryMsg.Data = msg.Data
				retryMsg.Header = nats.Header{}
				retryMsg.Header.Set("X-Retry-Count", fmt.Sprintf("%d", retries))
				if err := nc.PublishMsg(retryMsg); err != nil {
					log.Error("ingest: retry publish failed", "error", err)
				}
			}
		} else {
			id, _ := result.Unwrap()
			log.Info("ingest: success", "consultant_id", id)
		}

		if msg.Reply != "" {
			_ = msg.Ack()
		}
	})
}
