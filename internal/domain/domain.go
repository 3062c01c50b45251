package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// Theme is a daily contest theme. Immutable once created; the relational
// store is authoritative.
type Theme struct {
	ID          uuid.UUID `db:"id"`
	Category    string    `db:"category"`
	Date        time.Time `db:"theme_date"`
	WindowOpen  time.Time `db:"window_open"`
	WindowClose time.Time `db:"window_close"`
	CreatedAt   time.Time `db:"created_at"`
}

// Work is a single submission: one per (author, theme), immutable after
// creation.
type Work struct {
	ID                uuid.UUID `db:"id"`
	ThemeID           uuid.UUID `db:"theme_id"`
	AuthorID          uuid.UUID `db:"author_id"`
	AuthorDisplayName string    `db:"author_display_name"`
	Text              string    `db:"text"`
	CreatedAt         time.Time `db:"created_at"`
}

// Like is the durable (user, work) pair, the system of record for likes.
// Live counters are derived from it and may be rebuilt at any time.
type Like struct {
	UserID    uuid.UUID `db:"user_id"`
	WorkID    uuid.UUID `db:"work_id"`
	CreatedAt time.Time `db:"created_at"`
}

// LiveMetrics are the ephemeral per-work engagement counters.
type LiveMetrics struct {
	Likes         int64
	Impressions   int64
	UniqueViewers int64
}

// WorkCount pairs a work with its raw like count from the live ranking set.
type WorkCount struct {
	WorkID uuid.UUID
	Likes  int64
}

// Candidate is a scored entry produced by the candidate builder.
type Candidate struct {
	Work     Work
	RawLikes int64
	Metrics  LiveMetrics
	Score    float64
	Rank     int
}

// SnapshotEntry is one durable row of a theme's ranking snapshot.
type SnapshotEntry struct {
	ThemeID    uuid.UUID `db:"theme_id"`
	WorkID     uuid.UUID `db:"work_id"`
	Rank       int       `db:"rank"`
	Score      float64   `db:"score"`
	SnapshotAt time.Time `db:"snapshot_at"`
}

// ThemeSnapshot is the full finalized ranking for one theme.
type ThemeSnapshot struct {
	ThemeID uuid.UUID
	Entries []SnapshotEntry
}

// RankingEntry is the read-only projection returned by the ranking query.
type RankingEntry struct {
	Rank              int       `json:"rank"`
	WorkID            uuid.UUID `json:"work_id"`
	AuthorDisplayName string    `json:"author_display_name"`
	Text              string    `json:"text"`
	Score             float64   `json:"score"`
}

// Outcome is the explicit result of a best-effort accelerator write.
// A degraded outcome means the live store write failed; the caller's
// durable write is unaffected.
type Outcome struct {
	Applied bool
	Reason  error
}

func Ok() Outcome { return Outcome{Applied: true} }

func Degraded(reason error) Outcome { return Outcome{Applied: false, Reason: reason} }

// FinalizeReport summarizes one finalize batch run.
type FinalizeReport struct {
	Date         time.Time
	ThemeCount   int
	EntryCounts  map[uuid.UUID]int
	SkippedWorks int
}

// --- Interfaces ---

// CounterStore abstracts the fast ephemeral counter backend (Redis).
// All mutations are commutative increments; no coordination is required
// between concurrent callers.
type CounterStore interface {
	RecordLike(ctx context.Context, themeID, workID uuid.UUID) error
	RecordUnlike(ctx context.Context, themeID, workID uuid.UUID) error
	RecordImpression(ctx context.Context, themeID, workID uuid.UUID, count int64, viewerToken string) error

	TopWorks(ctx context.Context, themeID uuid.UUID, k int) ([]WorkCount, error)
	MetricsFor(ctx context.Context, workIDs []uuid.UUID) (map[uuid.UUID]LiveMetrics, error)

	RestoreCounters(ctx context.Context, themeID uuid.UUID, counts []WorkCount) error
}

// ThemeRepository abstracts theme persistence.
type ThemeRepository interface {
	GetByID(ctx context.Context, themeID uuid.UUID) (*Theme, error)
	ListByDate(ctx context.Context, date time.Time) ([]Theme, error)
}

// WorkRepository abstracts work persistence.
type WorkRepository interface {
	GetByIDs(ctx context.Context, workIDs []uuid.UUID) (map[uuid.UUID]Work, error)
	LikeCountsByTheme(ctx context.Context, themeID uuid.UUID) ([]WorkCount, error)
}

// SnapshotRepository abstracts ranking snapshot persistence. ReplaceBatch is
// the only write path: it replaces each theme's snapshot wholesale
// (delete-then-insert) inside a single transaction.
type SnapshotRepository interface {
	ReplaceBatch(ctx context.Context, date time.Time, snapshots []ThemeSnapshot) error
	Latest(ctx context.Context, themeID uuid.UUID, limit int) ([]RankingEntry, error)
}

// RankingService is the application layer contract; handlers route all
// operations through here.
type RankingService interface {
	RecordLike(ctx context.Context, themeID, workID uuid.UUID) Outcome
	RecordUnlike(ctx context.Context, themeID, workID uuid.UUID) Outcome
	RecordImpression(ctx context.Context, themeID, workID uuid.UUID, count int64, viewerToken string) Outcome

	GetRanking(ctx context.Context, themeID uuid.UUID, limit int) ([]RankingEntry, error)
	Finalize(ctx context.Context, date time.Time) (FinalizeReport, error)
	RebuildThemeCounters(ctx context.Context, themeID uuid.UUID) error
}
