package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/d-syoyu/yomibiyori-sub000/internal/config"
	"github.com/d-syoyu/yomibiyori-sub000/internal/domain"
	apperrors "github.com/d-syoyu/yomibiyori-sub000/internal/errors"
)

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	app          domain.RankingService
	redisClient  *goredis.Client
	pool         *pgxpool.Pool
	eventLimiter *EventRateLimiter
	clock        clockwork.Clock
	startTime    time.Time

	// Test seams for health checks. Nil in production.
	redisHealthCheck    redisHealthChecker
	postgresHealthCheck postgresHealthChecker
}

func NewServer(cfg *config.Config, app domain.RankingService, redisClient *goredis.Client, pool *pgxpool.Pool, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		redisClient:  redisClient,
		pool:         pool,
		eventLimiter: NewEventRateLimiter(cfg.EventRatePerSecond, cfg.EventRateBurst),
		clock:        clock,
		startTime:    clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
