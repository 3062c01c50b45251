package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"

	"github.com/d-syoyu/yomibiyori-sub000/internal/version"
)

const readinessTimeout = 5 * time.Second

// Narrow ping interfaces so readiness tests can swap in fakes.
type redisHealthChecker interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": s.clock.Since(s.startTime).Seconds(),
	})
}

// handleReadiness pings both backing stores and reports the first failure.
// Readiness covers the query path only; a degraded live store alone does not
// make the service unready because snapshot reads still work.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	if err := s.checkRedis(ctx); err != nil {
		return s.unready(c, "redis", err)
	}
	if err := s.checkPostgres(ctx); err != nil {
		return s.unready(c, "postgres", err)
	}
	return c.JSON(200, map[string]string{"status": "ready"})
}

func (s *Server) unready(c echo.Context, check string, err error) error {
	return c.JSON(503, map[string]any{
		"status":       "unhealthy",
		"failed_check": check,
		"error":        err.Error(),
	})
}

func (s *Server) checkRedis(ctx context.Context) error {
	if s.redisHealthCheck != nil {
		return s.redisHealthCheck.Ping(ctx).Err()
	}
	return s.redisClient.Ping(ctx).Err()
}

func (s *Server) checkPostgres(ctx context.Context) error {
	if s.postgresHealthCheck != nil {
		return s.postgresHealthCheck.Ping(ctx)
	}
	return s.pool.Ping(ctx)
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(200, version.Get())
}
