package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-syoyu/yomibiyori-sub000/internal/domain"
)

type snapshotFixture struct {
	themeID uuid.UUID
	workA   uuid.UUID
	workB   uuid.UUID
	date    time.Time
}

func setupSnapshotFixture(t *testing.T, pool *pgxpool.Pool) snapshotFixture {
	t.Helper()
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	themeID := insertTheme(t, pool, "haiku", date)
	authorA := insertAuthor(t, pool, "basho")
	authorB := insertAuthor(t, pool, "buson")
	return snapshotFixture{
		themeID: themeID,
		workA:   insertWork(t, pool, themeID, authorA, "old pond"),
		workB:   insertWork(t, pool, themeID, authorB, "spring sea"),
		date:    date,
	}
}

func snapshotFor(f snapshotFixture, entries ...domain.SnapshotEntry) domain.ThemeSnapshot {
	return domain.ThemeSnapshot{ThemeID: f.themeID, Entries: entries}
}

func TestSnapshotRepo_ReplaceBatchAndLatest(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewSnapshotRepo(pool)
	ctx := context.Background()

	f := setupSnapshotFixture(t, pool)
	at := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)

	snap := snapshotFor(f,
		domain.SnapshotEntry{ThemeID: f.themeID, WorkID: f.workA, Rank: 1, Score: 0.42, SnapshotAt: at},
		domain.SnapshotEntry{ThemeID: f.themeID, WorkID: f.workB, Rank: 2, Score: 0.17, SnapshotAt: at},
	)
	require.NoError(t, repo.ReplaceBatch(ctx, f.date, []domain.ThemeSnapshot{snap}))

	entries, err := repo.Latest(ctx, f.themeID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, f.workA, entries[0].WorkID)
	assert.Equal(t, "basho", entries[0].AuthorDisplayName)
	assert.Equal(t, "old pond", entries[0].Text)
	assert.InDelta(t, 0.42, entries[0].Score, 1e-12)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestSnapshotRepo_ReplaceBatch_Rerun(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewSnapshotRepo(pool)
	ctx := context.Background()

	f := setupSnapshotFixture(t, pool)
	at := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)

	first := snapshotFor(f,
		domain.SnapshotEntry{ThemeID: f.themeID, WorkID: f.workA, Rank: 1, Score: 0.42, SnapshotAt: at},
		domain.SnapshotEntry{ThemeID: f.themeID, WorkID: f.workB, Rank: 2, Score: 0.17, SnapshotAt: at},
	)
	require.NoError(t, repo.ReplaceBatch(ctx, f.date, []domain.ThemeSnapshot{first}))

	// Re-run with different content: old rows fully replaced, never merged.
	second := snapshotFor(f,
		domain.SnapshotEntry{ThemeID: f.themeID, WorkID: f.workB, Rank: 1, Score: 0.55, SnapshotAt: at},
	)
	require.NoError(t, repo.ReplaceBatch(ctx, f.date, []domain.ThemeSnapshot{second}))

	entries, err := repo.Latest(ctx, f.themeID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, f.workB, entries[0].WorkID)
	assert.InDelta(t, 0.55, entries[0].Score, 1e-12)
}

func TestSnapshotRepo_EmptySnapshotClearsPriorRows(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewSnapshotRepo(pool)
	ctx := context.Background()

	f := setupSnapshotFixture(t, pool)
	at := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)

	full := snapshotFor(f,
		domain.SnapshotEntry{ThemeID: f.themeID, WorkID: f.workA, Rank: 1, Score: 0.42, SnapshotAt: at},
	)
	require.NoError(t, repo.ReplaceBatch(ctx, f.date, []domain.ThemeSnapshot{full}))

	empty := domain.ThemeSnapshot{ThemeID: f.themeID}
	require.NoError(t, repo.ReplaceBatch(ctx, f.date, []domain.ThemeSnapshot{empty}))

	entries, err := repo.Latest(ctx, f.themeID, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSnapshotRepo_Latest_RespectsLimit(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewSnapshotRepo(pool)
	ctx := context.Background()

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	themeID := insertTheme(t, pool, "haiku", date)
	at := date.Add(22 * time.Hour)

	snap := domain.ThemeSnapshot{ThemeID: themeID}
	for i := 1; i <= 5; i++ {
		author := insertAuthor(t, pool, "poet")
		workID := insertWork(t, pool, themeID, author, "poem")
		snap.Entries = append(snap.Entries, domain.SnapshotEntry{
			ThemeID: themeID, WorkID: workID, Rank: i, Score: 1.0 / float64(i), SnapshotAt: at,
		})
	}
	require.NoError(t, repo.ReplaceBatch(ctx, date, []domain.ThemeSnapshot{snap}))

	entries, err := repo.Latest(ctx, themeID, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
}

func TestSnapshotRepo_Latest_UnknownTheme(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewSnapshotRepo(pool)

	entries, err := repo.Latest(context.Background(), uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSnapshotRepo_ReplaceBatch_MultipleThemes(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewSnapshotRepo(pool)
	ctx := context.Background()

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	at := date.Add(22 * time.Hour)

	f1 := setupSnapshotFixture(t, pool)
	theme2 := insertTheme(t, pool, "senryu", date)
	author := insertAuthor(t, pool, "ryokan")
	work2 := insertWork(t, pool, theme2, author, "the thief left it")

	batch := []domain.ThemeSnapshot{
		snapshotFor(f1, domain.SnapshotEntry{ThemeID: f1.themeID, WorkID: f1.workA, Rank: 1, Score: 0.3, SnapshotAt: at}),
		{ThemeID: theme2, Entries: []domain.SnapshotEntry{
			{ThemeID: theme2, WorkID: work2, Rank: 1, Score: 0.6, SnapshotAt: at},
		}},
	}
	require.NoError(t, repo.ReplaceBatch(ctx, date, batch))

	entries1, err := repo.Latest(ctx, f1.themeID, 10)
	require.NoError(t, err)
	assert.Len(t, entries1, 1)

	entries2, err := repo.Latest(ctx, theme2, 10)
	require.NoError(t, err)
	require.Len(t, entries2, 1)
	assert.Equal(t, work2, entries2[0].WorkID)
}
