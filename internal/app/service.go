package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/d-syoyu/yomibiyori-sub000/internal/domain"
	"github.com/d-syoyu/yomibiyori-sub000/internal/metrics"
	"github.com/d-syoyu/yomibiyori-sub000/internal/ranking"
)

// Service is the application layer, the only component that references
// multiple domain components. It orchestrates all ranking use cases.
type Service struct {
	themes    domain.ThemeRepository
	works     domain.WorkRepository
	snapshots domain.SnapshotRepository
	counters  domain.CounterStore
	builder   *ranking.Builder
	clock     clockwork.Clock
	// buildGroup collapses concurrent live builds for the same theme.
	buildGroup singleflight.Group
}

// NewService creates the application layer service.
func NewService(themes domain.ThemeRepository, works domain.WorkRepository, snapshots domain.SnapshotRepository, counters domain.CounterStore, builder *ranking.Builder, clock clockwork.Clock) *Service {
	return &Service{
		themes:    themes,
		works:     works,
		snapshots: snapshots,
		counters:  counters,
		builder:   builder,
		clock:     clock,
	}
}

// RecordLike adjusts the live counters after a durable like write. The like
// row is the system of record; a failure here degrades the live ranking only
// and must never fail the caller.
func (s *Service) RecordLike(ctx context.Context, themeID, workID uuid.UUID) domain.Outcome {
	return s.bestEffort(ctx, "like", themeID, workID, func(ctx context.Context) error {
		return s.counters.RecordLike(ctx, themeID, workID)
	})
}

// RecordUnlike mirrors RecordLike for like removal.
func (s *Service) RecordUnlike(ctx context.Context, themeID, workID uuid.UUID) domain.Outcome {
	return s.bestEffort(ctx, "unlike", themeID, workID, func(ctx context.Context) error {
		return s.counters.RecordUnlike(ctx, themeID, workID)
	})
}

// RecordImpression adds impressions and, when a viewer token is given, feeds
// the distinct-viewer estimate. Best-effort like RecordLike.
func (s *Service) RecordImpression(ctx context.Context, themeID, workID uuid.UUID, count int64, viewerToken string) domain.Outcome {
	return s.bestEffort(ctx, "impression", themeID, workID, func(ctx context.Context) error {
		return s.counters.RecordImpression(ctx, themeID, workID, count, viewerToken)
	})
}

// bestEffort wraps an accelerator write into an explicit two-branch outcome:
// degradation is logged and counted, never raised.
func (s *Service) bestEffort(ctx context.Context, op string, themeID, workID uuid.UUID, fn func(context.Context) error) domain.Outcome {
	if err := fn(ctx); err != nil {
		slog.Warn("Live counter update degraded",
			"operation", op,
			"theme_id", themeID.String(),
			"work_id", workID.String(),
			"error", err)
		metrics.LiveStoreDegradedTotal.WithLabelValues(op).Inc()
		return domain.Degraded(err)
	}
	return domain.Ok()
}

// GetRanking returns the ordered ranking for a theme, preferring live data
// and falling back to the latest snapshot. Unknown themes and themes with
// neither live nor snapshot data yield domain errors for the transport layer
// to map.
func (s *Service) GetRanking(ctx context.Context, themeID uuid.UUID, limit int) ([]domain.RankingEntry, error) {
	if limit <= 0 {
		limit = ranking.DefaultPoolSize
	}

	theme, err := s.themes.GetByID(ctx, themeID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.buildLive(ctx, *theme)
	if err != nil {
		// Fast store down: degrade to the snapshot instead of failing the read.
		slog.Warn("Live ranking unavailable, falling back to snapshot",
			"theme_id", themeID.String(), "error", err)
		candidates = nil
	}

	if len(candidates) > 0 {
		metrics.RankingQueriesTotal.WithLabelValues("live").Inc()
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}
		return toRankingEntries(candidates), nil
	}

	entries, err := s.snapshots.Latest(ctx, themeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if len(entries) == 0 {
		metrics.RankingQueriesTotal.WithLabelValues("not_found").Inc()
		return nil, domain.ErrNoRankingData
	}
	metrics.RankingQueriesTotal.WithLabelValues("snapshot").Inc()
	return entries, nil
}

func (s *Service) buildLive(ctx context.Context, theme domain.Theme) ([]domain.Candidate, error) {
	result, err, _ := s.buildGroup.Do(theme.ID.String(), func() (any, error) {
		start := s.clock.Now()
		candidates, _, err := s.builder.Build(ctx, theme)
		metrics.RankingBuildDuration.Observe(s.clock.Since(start).Seconds())
		return candidates, err
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Candidate), nil
}

// RebuildThemeCounters restores a theme's live counters from the durable like
// table, honoring the cache-rebuild guarantee after live-store data loss.
func (s *Service) RebuildThemeCounters(ctx context.Context, themeID uuid.UUID) error {
	if _, err := s.themes.GetByID(ctx, themeID); err != nil {
		return err
	}

	counts, err := s.works.LikeCountsByTheme(ctx, themeID)
	if err != nil {
		metrics.CounterRebuildsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to load like counts: %w", err)
	}

	if err := s.counters.RestoreCounters(ctx, themeID, counts); err != nil {
		metrics.CounterRebuildsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to restore counters: %w", err)
	}

	metrics.CounterRebuildsTotal.WithLabelValues("success").Inc()
	slog.Info("Rebuilt live counters from like table",
		"theme_id", themeID.String(), "works", len(counts))
	return nil
}

func toRankingEntries(candidates []domain.Candidate) []domain.RankingEntry {
	entries := make([]domain.RankingEntry, len(candidates))
	for i, c := range candidates {
		entries[i] = domain.RankingEntry{
			Rank:              c.Rank,
			WorkID:            c.Work.ID,
			AuthorDisplayName: c.Work.AuthorDisplayName,
			Text:              c.Work.Text,
			Score:             c.Score,
		}
	}
	return entries
}
