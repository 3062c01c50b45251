package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/d-syoyu/yomibiyori-sub000/internal/domain"
)

const themeColumns = `id, category, theme_date, window_open, window_close, created_at`

// ThemeRepo implements domain.ThemeRepository backed by PostgreSQL.
type ThemeRepo struct {
	pool *pgxpool.Pool
}

func NewThemeRepo(pool *pgxpool.Pool) *ThemeRepo {
	return &ThemeRepo{pool: pool}
}

func (r *ThemeRepo) GetByID(ctx context.Context, themeID uuid.UUID) (*domain.Theme, error) {
	var t domain.Theme
	err := r.pool.QueryRow(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE id = $1`, themeID).Scan(
		&t.ID, &t.Category, &t.Date, &t.WindowOpen, &t.WindowClose, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrThemeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get theme: %w", err)
	}
	return &t, nil
}

func (r *ThemeRepo) ListByDate(ctx context.Context, date time.Time) ([]domain.Theme, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE theme_date = $1::date ORDER BY id`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	defer rows.Close()

	var themes []domain.Theme
	for rows.Next() {
		var t domain.Theme
		if err := rows.Scan(&t.ID, &t.Category, &t.Date, &t.WindowOpen, &t.WindowClose, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan theme: %w", err)
		}
		themes = append(themes, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate themes: %w", err)
	}
	return themes, nil
}
