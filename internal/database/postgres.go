package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "min_conns", poolCfg.MinConns, "max_conns", poolCfg.MaxConns)
	return pool, nil
}

func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS authors (
			id UUID PRIMARY KEY,
			display_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS themes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			category TEXT NOT NULL,
			theme_date DATE NOT NULL,
			window_open TIMESTAMPTZ NOT NULL,
			window_close TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_themes_date ON themes(theme_date)`,
		`CREATE TABLE IF NOT EXISTS works (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			theme_id UUID NOT NULL REFERENCES themes(id) ON DELETE CASCADE,
			author_id UUID NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (theme_id, author_id)
		)`,
		`CREATE TABLE IF NOT EXISTS likes (
			user_id UUID NOT NULL,
			work_id UUID NOT NULL REFERENCES works(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, work_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_likes_work ON likes(work_id)`,
		`CREATE TABLE IF NOT EXISTS ranking_snapshots (
			theme_id UUID NOT NULL REFERENCES themes(id) ON DELETE CASCADE,
			work_id UUID NOT NULL REFERENCES works(id) ON DELETE CASCADE,
			rank INT NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			snapshot_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (theme_id, rank)
		)`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	slog.Info("Database migrations completed")
	return nil
}
