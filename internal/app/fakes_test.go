package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/d-syoyu/yomibiyori-sub000/internal/domain"
)

type fakeCounterStore struct {
	top     map[uuid.UUID][]domain.WorkCount
	metrics map[uuid.UUID]domain.LiveMetrics

	writeErr      error
	readErr       error
	topErrByTheme map[uuid.UUID]error

	likeCalls       []uuid.UUID
	unlikeCalls     []uuid.UUID
	impressionCalls []uuid.UUID
	restored        map[uuid.UUID][]domain.WorkCount
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{
		top:           make(map[uuid.UUID][]domain.WorkCount),
		metrics:       make(map[uuid.UUID]domain.LiveMetrics),
		restored:      make(map[uuid.UUID][]domain.WorkCount),
		topErrByTheme: make(map[uuid.UUID]error),
	}
}

func (f *fakeCounterStore) RecordLike(ctx context.Context, themeID, workID uuid.UUID) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.likeCalls = append(f.likeCalls, workID)
	return nil
}

func (f *fakeCounterStore) RecordUnlike(ctx context.Context, themeID, workID uuid.UUID) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.unlikeCalls = append(f.unlikeCalls, workID)
	return nil
}

func (f *fakeCounterStore) RecordImpression(ctx context.Context, themeID, workID uuid.UUID, count int64, viewerToken string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.impressionCalls = append(f.impressionCalls, workID)
	return nil
}

func (f *fakeCounterStore) TopWorks(ctx context.Context, themeID uuid.UUID, k int) ([]domain.WorkCount, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if err, ok := f.topErrByTheme[themeID]; ok {
		return nil, err
	}
	top := f.top[themeID]
	if len(top) > k {
		top = top[:k]
	}
	return top, nil
}

func (f *fakeCounterStore) MetricsFor(ctx context.Context, workIDs []uuid.UUID) (map[uuid.UUID]domain.LiveMetrics, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.metrics, nil
}

func (f *fakeCounterStore) RestoreCounters(ctx context.Context, themeID uuid.UUID, counts []domain.WorkCount) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.restored[themeID] = counts
	return nil
}

type fakeThemeRepo struct {
	themes map[uuid.UUID]domain.Theme
	err    error
}

func (f *fakeThemeRepo) GetByID(ctx context.Context, themeID uuid.UUID) (*domain.Theme, error) {
	if f.err != nil {
		return nil, f.err
	}
	theme, ok := f.themes[themeID]
	if !ok {
		return nil, domain.ErrThemeNotFound
	}
	return &theme, nil
}

func (f *fakeThemeRepo) ListByDate(ctx context.Context, date time.Time) ([]domain.Theme, error) {
	if f.err != nil {
		return nil, f.err
	}
	var themes []domain.Theme
	for _, theme := range f.themes {
		if theme.Date.Equal(date) {
			themes = append(themes, theme)
		}
	}
	return themes, nil
}

type fakeWorkRepo struct {
	works  map[uuid.UUID]domain.Work
	counts map[uuid.UUID][]domain.WorkCount
	err    error
}

func (f *fakeWorkRepo) GetByIDs(ctx context.Context, workIDs []uuid.UUID) (map[uuid.UUID]domain.Work, error) {
	if f.err != nil {
		return nil, f.err
	}
	found := make(map[uuid.UUID]domain.Work)
	for _, id := range workIDs {
		if w, ok := f.works[id]; ok {
			found[id] = w
		}
	}
	return found, nil
}

func (f *fakeWorkRepo) LikeCountsByTheme(ctx context.Context, themeID uuid.UUID) ([]domain.WorkCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.counts[themeID], nil
}

type fakeSnapshotRepo struct {
	snapshots map[uuid.UUID][]domain.RankingEntry

	replaceErr error
	latestErr  error

	lastBatch []domain.ThemeSnapshot
	lastDate  time.Time
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{snapshots: make(map[uuid.UUID][]domain.RankingEntry)}
}

func (f *fakeSnapshotRepo) ReplaceBatch(ctx context.Context, date time.Time, snapshots []domain.ThemeSnapshot) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.lastDate = date
	f.lastBatch = snapshots
	return nil
}

func (f *fakeSnapshotRepo) Latest(ctx context.Context, themeID uuid.UUID, limit int) ([]domain.RankingEntry, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	entries := f.snapshots[themeID]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
