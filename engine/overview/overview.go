// Package overview aggregates dashboard statistics over the consultant
// pool. The numbers are informational, so every backend failure
// degrades to a zero-valued snapshot instead of surfacing an error.
package overview

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/StafflyAI/staffly-mvp/engine/domain"
)

// topSkillCount is how many leading skills a snapshot reports.
const topSkillCount = 10

// scanLimit bounds how many profiles one snapshot reads.
const scanLimit = 1000

// Store is the slice of the profile store the overview needs.
type Store interface {
	CollectionExists(ctx context.Context) (bool, error)
	Count(ctx context.Context) (int, error)
	ScrollProfiles(ctx context.Context, limit int) ([]domain.ConsultantProfile, error)
}

// SkillCount pairs a skill with how many consultants list it.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// Stats is one snapshot of the consultant pool.
type Stats struct {
	CVCount      int          `json:"cvCount"`
	UniqueSkills int          `json:"uniqueSkills"`
	TopSkills    []SkillCount `json:"topSkills"`
}

// Service computes overview snapshots.
type Service struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Snapshot returns current pool statistics. Any backend failure is
// logged and yields the zero snapshot.
func (s *Service) Snapshot(ctx context.Context) Stats {
	exists, err := s.store.CollectionExists(ctx)
	if err != nil {
		s.logger.Warn("overview: collection check failed", "err", err)
		return zeroStats()
	}
	if !exists {
		return zeroStats()
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("overview: count failed", "err", err)
		return zeroStats()
	}

	profiles, err := s.store.ScrollProfiles(ctx, scanLimit)
	if err != nil {
		s.logger.Warn("overview: profile scan failed", "err", err)
		return zeroStats()
	}

	unique, top := tallySkills(profiles)
	return Stats{
		CVCount:      count,
		UniqueSkills: unique,
		TopSkills:    top,
	}
}

func zeroStats() Stats {
	return Stats{TopSkills: []SkillCount{}}
}

// tallySkills counts skill occurrences case-insensitively, reporting
// each skill under its first-seen spelling.
func tallySkills(profiles []domain.ConsultantProfile) (int, []SkillCount) {
	counts := make(map[string]int)
	display := make(map[string]string)
	for _, p := range profiles {
		for _, skill := range p.Skills {
			skill = strings.TrimSpace(skill)
			if skill == "" {
				continue
			}
			key := strings.ToLower(skill)
			if _, seen := display[key]; !seen {
				display[key] = skill
			}
			counts[key]++
		}
	}

	top := make([]SkillCount, 0, len(counts))
	for key, n := range counts {
		top = append(top, SkillCount{Skill: display[key], Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Skill < top[j].Skill
	})
	if len(top) > topSkillCount {
		top = top[:topSkillCount]
	}
	return len(counts), top
}
