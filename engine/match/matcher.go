// Package match implements candidate scoring and the matching
// orchestration pipeline: it embeds a free-text query, searches the
// consultant collection, converts raw similarity metrics into bounded
// match scores, and ranks the pool before truncating to the caller's
// limit.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/StafflyAI/staffly-mvp/engine/domain"
	"github.com/StafflyAI/staffly-mvp/engine/semantic"
)

// Searcher abstracts the consultant vector store.
type Searcher interface {
	CollectionExists(ctx context.Context) (bool, error)
	SearchProfiles(ctx context.Context, embedding []float32, limit int, minScore float64) ([]semantic.Hit, error)
	ScrollProfiles(ctx context.Context, limit int) ([]domain.ConsultantProfile, error)
}

// Embedder turns query text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options configures the matching pipeline. All thresholds are
// deployment configuration, not protocol.
type Options struct {
	// Mode is the similarity convention of the backend.
	Mode MetricMode
	// MinCertainty filters the thresholded search and substitutes for
	// missing raw metrics.
	MinCertainty float64
	// PoolSize is how many candidates to fetch and score per query,
	// before truncating to the caller's limit.
	PoolSize int
	// ScoreCap bounds certainty-mode scores.
	ScoreCap float64
	// PoolNormalize rescales scores across the pool instead of capping.
	PoolNormalize bool
	// FallbackLimit is how many candidates the unthresholded fallback
	// request fetches when the main search comes back empty.
	FallbackLimit int
	// FallbackScore is the fixed placeholder score for fallback
	// candidates, clearly distinguishable from a similarity ranking.
	FallbackScore float64
	// RoleTimeout bounds each role's search within a batch.
	RoleTimeout time.Duration
	// RoleWorkers bounds concurrent role searches within a batch.
	RoleWorkers int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Mode:          ModeCertainty,
		MinCertainty:  0.2,
		PoolSize:      100,
		ScoreCap:      90.0,
		FallbackLimit: 10,
		FallbackScore: 10.0,
		RoleTimeout:   5 * time.Second,
		RoleWorkers:   4,
	}
}

// Matcher executes semantic candidate searches.
type Matcher struct {
	embed  Embedder
	store  Searcher
	enrich *Enricher
	opts   Options
	norm   Normalizer
	logger *slog.Logger
}

// New creates a Matcher. Dependencies are injected explicitly; the
// caller owns their lifecycle.
func New(embed Embedder, store Searcher, enrich *Enricher, opts Options, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	if enrich == nil {
		enrich = NewEnricher(nil, logger)
	}
	return &Matcher{
		embed:  embed,
		store:  store,
		enrich: enrich,
		opts:   opts,
		norm: Normalizer{
			Mode:          opts.Mode,
			Cap:           opts.ScoreCap,
			MinCertainty:  opts.MinCertainty,
			PoolNormalize: opts.PoolNormalize,
		},
		logger: logger,
	}
}

// Match returns the top ranked candidates for one free-text query.
// An existing but empty collection yields an empty list, not an error.
func (m *Matcher) Match(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	if err := domain.ValidateMatchRequest(query, limit); err != nil {
		return nil, err
	}
	if err := m.checkPreconditions(ctx); err != nil {
		return nil, err
	}
	return m.search(ctx, query, limit)
}

// checkPreconditions verifies the backend is reachable and the
// consultant collection exists.
func (m *Matcher) checkPreconditions(ctx context.Context) error {
	exists, err := m.store.CollectionExists(ctx)
	if err != nil {
		return fmt.Errorf("match: preconditions: %w", err)
	}
	if !exists {
		return fmt.Errorf("match: %w", domain.ErrNoCandidates)
	}
	return nil
}

// search runs one embed+search+score+rank pass. Preconditions are
// assumed checked.
func (m *Matcher) search(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	embedding, err := m.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("match: embed query: %w", err)
	}

	hits, err := m.store.SearchProfiles(ctx, embedding, m.opts.PoolSize, m.opts.MinCertainty)
	if err != nil {
		return nil, fmt.Errorf("match: search: %w", err)
	}

	if len(hits) == 0 {
		// A strict threshold over a small pool is indistinguishable from
		// "no data at all" for the caller; serve honestly-low-scored
		// suggestions instead.
		return m.fallback(ctx, limit), nil
	}

	// Score the whole pool before truncating. Scoring after truncation
	// would rank by backend order, not by score.
	scores := m.norm.Scores(hits)

	candidates := make([]domain.Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = m.enrich.Enrich(ctx, h.Profile, scores[i])
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchScore > candidates[j].MatchScore
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// fallback serves a small unthresholded sample with a fixed placeholder
// score. Fallback failures degrade to an empty list.
func (m *Matcher) fallback(ctx context.Context, limit int) []domain.Candidate {
	profiles, err := m.store.ScrollProfiles(ctx, m.opts.FallbackLimit)
	if err != nil {
		m.logger.Warn("match: fallback query failed", "err", err)
		return []domain.Candidate{}
	}

	candidates := make([]domain.Candidate, 0, len(profiles))
	for _, p := range profiles {
		candidates = append(candidates, m.enrich.Enrich(ctx, p, m.opts.FallbackScore))
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
