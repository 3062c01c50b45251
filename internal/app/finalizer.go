package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/d-syoyu/yomibiyori-sub000/internal/domain"
	"github.com/d-syoyu/yomibiyori-sub000/internal/metrics"
)

// Finalize freezes the day's rankings into durable snapshots. Every theme of
// the given date gets its snapshot replaced wholesale in one transaction, so
// a re-run for the same date converges to the same rows. A theme whose live
// build fails is skipped and keeps its previous snapshot; the rest of the
// batch still commits.
func (s *Service) Finalize(ctx context.Context, date time.Time) (domain.FinalizeReport, error) {
	start := s.clock.Now()
	report := domain.FinalizeReport{
		Date:        date,
		EntryCounts: make(map[uuid.UUID]int),
	}

	themes, err := s.themes.ListByDate(ctx, date)
	if err != nil {
		metrics.FinalizeRunsTotal.WithLabelValues("error").Inc()
		return report, fmt.Errorf("failed to list themes: %w", err)
	}
	report.ThemeCount = len(themes)

	snapshotAt := s.clock.Now().UTC()
	snapshots := make([]domain.ThemeSnapshot, 0, len(themes))
	for _, theme := range themes {
		// A mid-window snapshot would wholesale-replace yesterday's full
		// ranking with partial-day data; those themes wait for the next run.
		if theme.WindowClose.After(s.clock.Now()) {
			slog.Warn("Skipping theme with open submission window",
				"theme_id", theme.ID.String(),
				"window_close", theme.WindowClose)
			metrics.FinalizeThemesTotal.WithLabelValues("window_open").Inc()
			continue
		}

		candidates, skipped, err := s.builder.Build(ctx, theme)
		if err != nil {
			slog.Error("Skipping theme in finalize batch",
				"theme_id", theme.ID.String(), "error", err)
			metrics.FinalizeThemesTotal.WithLabelValues("skipped").Inc()
			continue
		}

		report.SkippedWorks += skipped
		if skipped > 0 {
			metrics.FinalizeWorksSkippedTotal.Add(float64(skipped))
		}

		snap := domain.ThemeSnapshot{ThemeID: theme.ID}
		for _, c := range candidates {
			snap.Entries = append(snap.Entries, domain.SnapshotEntry{
				ThemeID:    theme.ID,
				WorkID:     c.Work.ID,
				Rank:       c.Rank,
				Score:      c.Score,
				SnapshotAt: snapshotAt,
			})
		}
		snapshots = append(snapshots, snap)
		report.EntryCounts[theme.ID] = len(snap.Entries)

		if len(snap.Entries) == 0 {
			metrics.FinalizeThemesTotal.WithLabelValues("empty").Inc()
		} else {
			metrics.FinalizeThemesTotal.WithLabelValues("written").Inc()
		}
	}

	if err := s.snapshots.ReplaceBatch(ctx, date, snapshots); err != nil {
		metrics.FinalizeRunsTotal.WithLabelValues("error").Inc()
		return report, fmt.Errorf("failed to write snapshots: %w", err)
	}

	metrics.FinalizeRunsTotal.WithLabelValues("success").Inc()
	metrics.FinalizeDuration.Observe(s.clock.Since(start).Seconds())
	slog.Info("Finalized daily rankings",
		"date", date.Format("2006-01-02"),
		"themes", report.ThemeCount,
		"written", len(snapshots),
		"skipped_works", report.SkippedWorks)
	return report, nil
}
