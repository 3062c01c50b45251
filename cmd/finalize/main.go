package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/d-syoyu/yomibiyori-sub000/internal/app"
	"github.com/d-syoyu/yomibiyori-sub000/internal/config"
	"github.com/d-syoyu/yomibiyori-sub000/internal/database"
	"github.com/d-syoyu/yomibiyori-sub000/internal/logging"
	"github.com/d-syoyu/yomibiyori-sub000/internal/ranking"
	"github.com/d-syoyu/yomibiyori-sub000/internal/redis"
)

// Batch entrypoint for the daily snapshot job. Run after the contest window
// closes, typically from cron or a scheduler. Idempotent per date.
func main() {
	var (
		dateFlag = flag.String("date", "", "Contest date to finalize (YYYY-MM-DD, default today UTC)")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	clock := clockwork.NewRealClock()

	date := clock.Now().UTC()
	if *dateFlag != "" {
		date, err = time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			log.Fatalf("Invalid --date: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	counterStore := redis.NewCounterStore(redisClient, clock)
	themeRepo := database.NewThemeRepo(pool)
	workRepo := database.NewWorkRepo(pool)
	snapshotRepo := database.NewSnapshotRepo(pool)

	strategy, err := ranking.ParseStrategy(cfg.RankingStrategy)
	if err != nil {
		slog.Error("Invalid ranking strategy", "error", err)
		os.Exit(1)
	}
	scorer := ranking.NewScorer(strategy, cfg.WilsonZ, cfg.BayesPriorMean, cfg.BayesPriorWeight)
	normalizer := ranking.NewNormalizer(cfg.RankingTimeBonus)
	builder := ranking.NewBuilder(counterStore, workRepo, scorer, normalizer, cfg.RankingPoolSize, clock)

	svc := app.NewService(themeRepo, workRepo, snapshotRepo, counterStore, builder, clock)

	report, err := svc.Finalize(ctx, date)
	if err != nil {
		slog.Error("Finalize run failed", "date", date.Format("2006-01-02"), "error", err)
		os.Exit(1)
	}

	for themeID, entries := range report.EntryCounts {
		slog.Info("Theme finalized", "theme_id", themeID.String(), "entries", entries)
	}
	slog.Info("Finalize complete",
		"date", report.Date.Format("2006-01-02"),
		"themes", report.ThemeCount,
		"skipped_works", report.SkippedWorks)
}
