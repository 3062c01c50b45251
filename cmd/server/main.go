package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/d-syoyu/yomibiyori-sub000/internal/app"
	"github.com/d-syoyu/yomibiyori-sub000/internal/config"
	"github.com/d-syoyu/yomibiyori-sub000/internal/database"
	"github.com/d-syoyu/yomibiyori-sub000/internal/logging"
	"github.com/d-syoyu/yomibiyori-sub000/internal/metrics"
	"github.com/d-syoyu/yomibiyori-sub000/internal/ranking"
	"github.com/d-syoyu/yomibiyori-sub000/internal/redis"
	"github.com/d-syoyu/yomibiyori-sub000/internal/server"
	"github.com/d-syoyu/yomibiyori-sub000/internal/version"
)

func setupConfig() *config.Config {
	// Missing .env is fine outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return db
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	buildInfo := version.Get()
	metrics.BuildInfo.WithLabelValues(buildInfo.Version, buildInfo.Commit, buildInfo.GoVersion).Set(1)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
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

	appSvc := app.NewService(themeRepo, workRepo, snapshotRepo, counterStore, builder, clock)

	srv := server.NewServer(cfg, appSvc, redisClient, pool, clock)

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
