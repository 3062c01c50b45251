package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/d-syoyu/yomibiyori-sub000/internal/domain"
)

// DefaultPoolSize bounds the candidate pool fetched from the live ranking set.
const DefaultPoolSize = 100

// Builder assembles the scored candidate list for a theme from live counters.
type Builder struct {
	counters   domain.CounterStore
	works      domain.WorkRepository
	scorer     *Scorer
	normalizer Normalizer
	poolSize   int
	clock      clockwork.Clock
}

// NewBuilder creates a candidate builder. poolSize <= 0 falls back to
// DefaultPoolSize.
func NewBuilder(counters domain.CounterStore, works domain.WorkRepository, scorer *Scorer, normalizer Normalizer, poolSize int, clock clockwork.Clock) *Builder {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	return &Builder{
		counters:   counters,
		works:      works,
		scorer:     scorer,
		normalizer: normalizer,
		poolSize:   poolSize,
		clock:      clock,
	}
}

// Build returns the ranked candidates for a theme, plus the number of live
// entries skipped because their work no longer exists in durable storage.
// A theme with no live data yields an empty slice, not an error.
func (b *Builder) Build(ctx context.Context, theme domain.Theme) ([]domain.Candidate, int, error) {
	top, err := b.counters.TopWorks(ctx, theme.ID, b.poolSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch candidate pool: %w", err)
	}
	if len(top) == 0 {
		return nil, 0, nil
	}

	ids := make([]uuid.UUID, len(top))
	for i, wc := range top {
		ids[i] = wc.WorkID
	}

	metrics, err := b.counters.MetricsFor(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch live metrics: %w", err)
	}

	works, err := b.works.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to resolve works: %w", err)
	}

	evalAt := b.clock.Now()
	skipped := 0
	candidates := make([]domain.Candidate, 0, len(top))
	for _, wc := range top {
		work, found := works[wc.WorkID]
		if !found {
			// Live counter references a deleted or never-persisted work.
			slog.Warn("Skipping candidate missing from durable storage",
				"theme_id", theme.ID.String(),
				"work_id", wc.WorkID.String())
			skipped++
			continue
		}

		m := metrics[wc.WorkID]
		if m.Likes < wc.Likes {
			// The sorted set is the bound for the pool; the hash may lag one
			// round trip behind. Trust the larger count.
			m.Likes = wc.Likes
		}

		score := b.scorer.Score(int(m.Likes), TrialCount(m))
		factor := b.normalizer.Factor(work.CreatedAt, evalAt, theme.WindowOpen, theme.WindowClose)

		candidates = append(candidates, domain.Candidate{
			Work:     work,
			RawLikes: wc.Likes,
			Metrics:  m,
			Score:    score * factor,
		})
	}

	sortCandidates(candidates)
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates, skipped, nil
}

// sortCandidates orders by normalized score descending, raw like count
// descending, then work ID ascending. The ID tie-break makes the total order
// fully deterministic even under exact score and count ties.
func sortCandidates(candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.RawLikes != b.RawLikes {
			return a.RawLikes > b.RawLikes
		}
		return a.Work.ID.String() < b.Work.ID.String()
	})
}
