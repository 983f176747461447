package match

import (
	"context"

	"github.com/StafflyAI/staffly-mvp/engine/domain"
	"github.com/StafflyAI/staffly-mvp/pkg/fn"
)

// MatchRoles runs an independent search per role specification and
// returns one RoleMatch per input role, in input order. A failing role
// degrades to an empty candidate list; only global precondition
// failures (backend unreachable, collection missing) abort the batch.
func (m *Matcher) MatchRoles(ctx context.Context, roles []domain.RoleSpec, limit int) ([]domain.RoleMatch, error) {
	if limit <= 0 {
		return nil, domain.NewValidationError("limit", "", domain.ErrInvalidLimit)
	}
	// Preconditions are checked once up front: per-role fallback only
	// makes sense once the backend itself is viable.
	if err := m.checkPreconditions(ctx); err != nil {
		return nil, err
	}

	results := fn.ParMapResult(roles, m.opts.RoleWorkers, func(role domain.RoleSpec) fn.Result[domain.RoleMatch] {
		return fn.Ok(m.matchRole(ctx, role, limit))
	})

	// Every per-role result is Ok by construction, so Collect cannot
	// fail and output length always equals input length.
	matches, _ := fn.Collect(results).Unwrap()
	return matches, nil
}

// matchRole searches for one role, demoting any failure to an empty
// candidate list so one role cannot abort the batch. A per-role timeout
// keeps a hung search from stalling the other roles' results.
func (m *Matcher) matchRole(ctx context.Context, role domain.RoleSpec, limit int) domain.RoleMatch {
	roleCtx := ctx
	if m.opts.RoleTimeout > 0 {
		var cancel context.CancelFunc
		roleCtx, cancel = context.WithTimeout(ctx, m.opts.RoleTimeout)
		defer cancel()
	}

	candidates, err := m.search(roleCtx, role.Query, limit)
	if err != nil {
		m.logger.Warn("match: role search failed",
			"role", role.Title,
			"err", err,
		)
		return domain.RoleMatch{Role: role, Candidates: []domain.Candidate{}}
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	return domain.RoleMatch{Role: role, Candidates: candidates}
}
