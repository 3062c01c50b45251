package server

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/d-syoyu/yomibiyori-sub000/internal/domain"
	apperrors "github.com/d-syoyu/yomibiyori-sub000/internal/errors"
)

// eventRequest is the body of a counter hook call. The durable write has
// already happened on the caller's side; this only adjusts live counters.
type eventRequest struct {
	ThemeID uuid.UUID `json:"theme_id"`
	WorkID  uuid.UUID `json:"work_id"`
}

type impressionRequest struct {
	ThemeID     uuid.UUID `json:"theme_id"`
	WorkID      uuid.UUID `json:"work_id"`
	Count       int64     `json:"count"`
	ViewerToken string    `json:"viewer_token"`
}

type eventResponse struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

func (s *Server) handleGetRanking(c echo.Context) error {
	themeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid theme ID format").WithField("id", c.Param("id"))
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return apperrors.ValidationError("limit must be a positive integer").WithField("limit", raw)
		}
	}

	entries, err := s.app.GetRanking(c.Request().Context(), themeID, limit)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrThemeNotFound):
			return apperrors.NotFoundError("theme not found").WithField("theme_id", themeID.String())
		case errors.Is(err, domain.ErrNoRankingData):
			return apperrors.NotFoundError("no ranking data for theme").WithField("theme_id", themeID.String())
		default:
			return apperrors.InternalError("failed to load ranking", err).WithField("theme_id", themeID.String())
		}
	}

	if err := c.JSON(200, map[string]any{
		"theme_id": themeID.String(),
		"entries":  entries,
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLikeEvent(c echo.Context) error {
	req, err := bindEvent(c)
	if err != nil {
		return err
	}
	outcome := s.app.RecordLike(c.Request().Context(), req.ThemeID, req.WorkID)
	return respondOutcome(c, outcome)
}

func (s *Server) handleUnlikeEvent(c echo.Context) error {
	req, err := bindEvent(c)
	if err != nil {
		return err
	}
	outcome := s.app.RecordUnlike(c.Request().Context(), req.ThemeID, req.WorkID)
	return respondOutcome(c, outcome)
}

func (s *Server) handleImpressionEvent(c echo.Context) error {
	var req impressionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.ThemeID == uuid.Nil || req.WorkID == uuid.Nil {
		return apperrors.ValidationError("theme_id and work_id are required")
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if req.Count < 0 {
		return apperrors.ValidationError("count must be positive").WithField("count", req.Count)
	}

	outcome := s.app.RecordImpression(c.Request().Context(), req.ThemeID, req.WorkID, req.Count, req.ViewerToken)
	return respondOutcome(c, outcome)
}

func bindEvent(c echo.Context) (eventRequest, error) {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return req, apperrors.ValidationError("invalid request body")
	}
	if req.ThemeID == uuid.Nil || req.WorkID == uuid.Nil {
		return req, apperrors.ValidationError("theme_id and work_id are required")
	}
	return req, nil
}

// respondOutcome always answers 202: a degraded live store must not fail the
// caller, whose durable write already succeeded.
func respondOutcome(c echo.Context, outcome domain.Outcome) error {
	resp := eventResponse{Applied: outcome.Applied}
	if outcome.Reason != nil {
		resp.Reason = outcome.Reason.Error()
	}
	if err := c.JSON(202, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleFinalize(c echo.Context) error {
	date := s.clock.Now().UTC()
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return apperrors.ValidationError("date must be YYYY-MM-DD").WithField("date", raw)
		}
		date = parsed
	}

	report, err := s.app.Finalize(c.Request().Context(), date)
	if err != nil {
		return apperrors.InternalError("finalize run failed", err).
			WithField("date", date.Format("2006-01-02"))
	}

	entryCounts := make(map[string]int, len(report.EntryCounts))
	for themeID, n := range report.EntryCounts {
		entryCounts[themeID.String()] = n
	}
	if err := c.JSON(200, map[string]any{
		"date":          report.Date.Format("2006-01-02"),
		"theme_count":   report.ThemeCount,
		"entry_counts":  entryCounts,
		"skipped_works": report.SkippedWorks,
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleRebuildCounters(c echo.Context) error {
	themeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid theme ID format").WithField("id", c.Param("id"))
	}

	if err := s.app.RebuildThemeCounters(c.Request().Context(), themeID); err != nil {
		if errors.Is(err, domain.ErrThemeNotFound) {
			return apperrors.NotFoundError("theme not found").WithField("theme_id", themeID.String())
		}
		return apperrors.InternalError("failed to rebuild counters", err).
			WithField("theme_id", themeID.String())
	}

	if err := c.JSON(200, map[string]string{"status": "ok"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
