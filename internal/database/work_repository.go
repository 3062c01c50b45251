package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/d-syoyu/yomibiyori-sub000/internal/domain"
)

// WorkRepo implements domain.WorkRepository backed by PostgreSQL.
type WorkRepo struct {
	pool *pgxpool.Pool
}

func NewWorkRepo(pool *pgxpool.Pool) *WorkRepo {
	return &WorkRepo{pool: pool}
}

// GetByIDs resolves works (with their author display names) in one query.
// IDs with no matching row are simply absent from the result map; the caller
// decides whether a missing work is an error.
func (r *WorkRepo) GetByIDs(ctx context.Context, workIDs []uuid.UUID) (map[uuid.UUID]domain.Work, error) {
	if len(workIDs) == 0 {
		return map[uuid.UUID]domain.Work{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.theme_id, w.author_id, a.display_name, w.text, w.created_at
		FROM works w
		JOIN authors a ON a.id = w.author_id
		WHERE w.id = ANY($1)
	`, workIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch works: %w", err)
	}
	defer rows.Close()

	works := make(map[uuid.UUID]domain.Work, len(workIDs))
	for rows.Next() {
		var w domain.Work
		if err := rows.Scan(&w.ID, &w.ThemeID, &w.AuthorID, &w.AuthorDisplayName, &w.Text, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work: %w", err)
		}
		works[w.ID] = w
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate works: %w", err)
	}
	return works, nil
}

// LikeCountsByTheme aggregates the durable like table per work. This is the
// rebuild source for the live counters: the like rows can always reconstruct
// them.
func (r *WorkRepo) LikeCountsByTheme(ctx context.Context, themeID uuid.UUID) ([]domain.WorkCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, COUNT(l.user_id)
		FROM works w
		LEFT JOIN likes l ON l.work_id = w.id
		WHERE w.theme_id = $1
		GROUP BY w.id
		ORDER BY w.id
	`, themeID)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	defer rows.Close()

	var counts []domain.WorkCount
	for rows.Next() {
		var wc domain.WorkCount
		if err := rows.Scan(&wc.WorkID, &wc.Likes); err != nil {
			return nil, fmt.Errorf("failed to scan like count: %w", err)
		}
		counts = append(counts, wc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate like counts: %w", err)
	}
	return counts, nil
}
