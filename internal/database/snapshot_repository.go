package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/d-syoyu/yomibiyori-sub000/internal/domain"
)

// SnapshotRepo implements domain.SnapshotRepository backed by PostgreSQL.
// The finalize job is the only writer of ranking_snapshots rows.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// ReplaceBatch atomically replaces the snapshots of every given theme inside
// a single transaction. Per theme, an advisory lock keyed on (theme, date)
// serializes concurrent finalize runs for the same theme-date, and the delete
// always precedes the insert so a re-run can never leave duplicate or
// half-old rows. A theme with zero entries ends up with an explicit empty
// snapshot rather than a stale one.
func (r *SnapshotRepo) ReplaceBatch(ctx context.Context, date time.Time, snapshots []domain.ThemeSnapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	day := date.Format("2006-01-02")
	for _, snap := range snapshots {
		lockKey := snap.ThemeID.String() + ":" + day
		if _, err := tx.Exec(ctx,
			`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
			return fmt.Errorf("failed to acquire snapshot lock: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM ranking_snapshots WHERE theme_id = $1`, snap.ThemeID); err != nil {
			return fmt.Errorf("failed to delete prior snapshot: %w", err)
		}

		for _, entry := range snap.Entries {
			if _, err := tx.Exec(ctx, `
				INSERT INTO ranking_snapshots (theme_id, work_id, rank, score, snapshot_at)
				VALUES ($1, $2, $3, $4, $5)
			`, entry.ThemeID, entry.WorkID, entry.Rank, entry.Score, entry.SnapshotAt); err != nil {
				return fmt.Errorf("failed to insert snapshot entry: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot batch: %w", err)
	}
	return nil
}

// Latest returns the current snapshot for a theme as the public ranking
// projection, ordered by rank.
func (r *SnapshotRepo) Latest(ctx context.Context, themeID uuid.UUID, limit int) ([]domain.RankingEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.rank, s.work_id, a.display_name, w.text, s.score
		FROM ranking_snapshots s
		JOIN works w ON w.id = s.work_id
		JOIN authors a ON a.id = w.author_id
		WHERE s.theme_id = $1
		ORDER BY s.rank
		LIMIT $2
	`, themeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer rows.Close()

	var entries []domain.RankingEntry
	for rows.Next() {
		var e domain.RankingEntry
		if err := rows.Scan(&e.Rank, &e.WorkID, &e.AuthorDisplayName, &e.Text, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot: %w", err)
	}
	return entries, nil
}
