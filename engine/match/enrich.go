package match

import (
	"context"
	"log/slog"

	"github.com/StafflyAI/staffly-mvp/engine/domain"
)

// DocProber checks whether a stored resume exists for a consultant.
// Satisfied by the document store.
type DocProber interface {
	Exists(id string) (bool, error)
}

// Enricher annotates candidates with the ID of their stored resume.
// The probe is best-effort: any failure means "no resume", never a
// failed match.
type Enricher struct {
	docs   DocProber
	logger *slog.Logger
}

// NewEnricher creates an Enricher. A nil prober disables enrichment.
func NewEnricher(docs DocProber, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{docs: docs, logger: logger}
}

// Enrich builds a presentation candidate from a profile and its score.
func (e *Enricher) Enrich(ctx context.Context, p domain.ConsultantProfile, score float64) domain.Candidate {
	c := domain.Candidate{ConsultantProfile: p, MatchScore: score}
	if e.docs == nil {
		return c
	}

	ok, err := e.docs.Exists(p.ID)
	if err != nil {
		e.logger.Debug("resume probe failed", "consultant_id", p.ID, "err", err)
		return c
	}
	if ok {
		c.ResumeID = p.ID
	}
	return c
}
