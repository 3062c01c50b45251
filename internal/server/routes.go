package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Public ranking read
	s.echo.GET("/api/themes/:id/ranking", s.handleGetRanking)

	// Counter hooks, called by the submission service after durable writes.
	// Rate limited per source IP.
	s.echo.POST("/internal/events/like", s.handleLikeEvent, s.rateLimitEvents)
	s.echo.POST("/internal/events/unlike", s.handleUnlikeEvent, s.rateLimitEvents)
	s.echo.POST("/internal/events/impression", s.handleImpressionEvent, s.rateLimitEvents)

	// Operational jobs
	s.echo.POST("/internal/finalize", s.handleFinalize)
	s.echo.POST("/internal/rebuild/:id", s.handleRebuildCounters)
}
