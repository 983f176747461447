package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/StafflyAI/staffly-mvp/engine/domain"
	"github.com/StafflyAI/staffly-mvp/engine/semantic"
)

// perQueryStore routes searches by embedded query so each role gets its
// own result set or failure.
type perQueryStore struct {
	mu      sync.Mutex
	exists  bool
	hits    map[string][]semantic.Hit
	errs    map[string]error
	queries []string
}

func (s *perQueryStore) CollectionExists(_ context.Context) (bool, error) {
	return s.exists, nil
}

func (s *perQueryStore) SearchProfiles(_ context.Context, _ []float32, _ int, _ float64) ([]semantic.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queries[0]
	s.queries = s.queries[1:]
	if err := s.errs[q]; err != nil {
		return nil, err
	}
	return s.hits[q], nil
}

func (s *perQueryStore) ScrollProfiles(_ context.Context, _ int) ([]domain.ConsultantProfile, error) {
	return nil, nil
}

// queryEmbedder records which query is in flight for perQueryStore.
type queryEmbedder struct {
	store *perQueryStore
}

func (e *queryEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.store.mu.Lock()
	e.store.queries = append(e.store.queries, text)
	e.store.mu.Unlock()
	return []float32{0.1}, nil
}

func roles(queries ...string) []domain.RoleSpec {
	out := make([]domain.RoleSpec, len(queries))
	for i, q := range queries {
		out[i] = domain.RoleSpec{Title: "role-" + q, Query: q}
	}
	return out
}

func newBatchMatcher(store *perQueryStore, opts Options) *Matcher {
	// Sequential workers keep the query routing in perQueryStore
	// deterministic.
	opts.RoleWorkers = 1
	return New(&queryEmbedder{store: store}, store, nil, opts, slog.Default())
}

func TestMatchRolesAlignedOutput(t *testing.T) {
	store := &perQueryStore{
		exists: true,
		hits: map[string][]semantic.Hit{
			"frontend": {hit("f1", 0.8)},
			"backend":  {hit("b1", 0.9), hit("b2", 0.7)},
			"devops":   nil, // empty pool, empty fallback
		},
		errs: map[string]error{},
	}
	m := newBatchMatcher(store, DefaultOptions())

	got, err := m.MatchRoles(context.Background(), roles("frontend", "backend", "devops"), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i, q := range []string{"frontend", "backend", "devops"} {
		if got[i].Role.Query != q {
			t.Errorf("result %d out of order: %q", i, got[i].Role.Query)
		}
		if got[i].Candidates == nil {
			t.Errorf("result %d: candidates must never be nil", i)
		}
	}
	if len(got[1].Candidates) != 2 || got[1].Candidates[0].ID != "b1" {
		t.Errorf("backend role ranked wrong: %+v", got[1].Candidates)
	}
}

func TestMatchRolesIsolatesFailures(t *testing.T) {
	store := &perQueryStore{
		exists: true,
		hits: map[string][]semantic.Hit{
			"good": {hit("g1", 0.8)},
		},
		errs: map[string]error{
			"bad": fmt.Errorf("index corrupted"),
		},
	}
	m := newBatchMatcher(store, DefaultOptions())

	got, err := m.MatchRoles(context.Background(), roles("bad", "good"), 3)
	if err != nil {
		t.Fatalf("one failing role must not abort the batch: %v", err)
	}
	if len(got[0].Candidates) != 0 {
		t.Errorf("failed role should have empty candidates, got %d", len(got[0].Candidates))
	}
	if len(got[1].Candidates) != 1 {
		t.Errorf("healthy role should still match, got %d", len(got[1].Candidates))
	}
}

func TestMatchRolesAllFailing(t *testing.T) {
	store := &perQueryStore{
		exists: true,
		hits:   map[string][]semantic.Hit{},
		errs: map[string]error{
			"a": fmt.Errorf("boom"),
			"b": fmt.Errorf("boom"),
			"c": fmt.Errorf("boom"),
		},
	}
	m := newBatchMatcher(store, DefaultOptions())

	got, err := m.MatchRoles(context.Background(), roles("a", "b", "c"), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected exactly 3 results even when all roles fail, got %d", len(got))
	}
	for i, rm := range got {
		if rm.Candidates == nil || len(rm.Candidates) != 0 {
			t.Errorf("result %d: want empty candidate list, got %#v", i, rm.Candidates)
		}
	}
}

func TestMatchRolesGlobalPreconditions(t *testing.T) {
	store := &perQueryStore{exists: false}
	m := newBatchMatcher(store, DefaultOptions())

	_, err := m.MatchRoles(context.Background(), roles("a"), 3)
	if !errors.Is(err, domain.ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates for missing collection, got %v", err)
	}
}

func TestMatchRolesEmptyInput(t *testing.T) {
	store := &perQueryStore{exists: true}
	m := newBatchMatcher(store, DefaultOptions())

	got, err := m.MatchRoles(context.Background(), nil, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected 0 results for empty input, got %d", len(got))
	}
}

// slowStore hangs in search until the context is done.
type slowStore struct{}

func (s *slowStore) CollectionExists(_ context.Context) (bool, error) { return true, nil }

func (s *slowStore) SearchProfiles(ctx context.Context, _ []float32, _ int, _ float64) ([]semantic.Hit, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *slowStore) ScrollProfiles(ctx context.Context, _ int) ([]domain.ConsultantProfile, error) {
	return nil, ctx.Err()
}

func TestMatchRolesTimeoutDegrades(t *testing.T) {
	opts := DefaultOptions()
	opts.RoleTimeout = 20 * time.Millisecond
	m := New(&mockEmbedder{vec: []float32{0.1}}, &slowStore{}, nil, opts, slog.Default())

	start := time.Now()
	got, err := m.MatchRoles(context.Background(), roles("hung"), 3)
	if err != nil {
		t.Fatalf("hung role must degrade, not fail: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("per-role timeout not applied, took %v", elapsed)
	}
	if len(got) != 1 || len(got[0].Candidates) != 0 {
		t.Errorf("hung role should yield empty candidates, got %+v", got)
	}
}
