package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"actilog/internal/errors"
	"actilog/internal/service"
)

// StatsHandler serves activity counters.
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Today godoc
// @Summary Today's counters for the requesting user
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.TodayStats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /stats [get]
func (h *StatsHandler) Today(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	stats, err := h.statsService.Today(c.Request().Context(), claims.UserID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, stats)
}

// Dashboard godoc
// @Summary Dashboard counters plus a week of chart data
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param user_id query int false "View another user's dashboard (admin only)"
// @Success 200 {object} service.DashboardStats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /stats/dashboard [get]
func (h *StatsHandler) Dashboard(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	stats, err := h.statsService.Dashboard(c.Request().Context(), actor, uint(queryInt(c, "user_id")))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, stats)
}

// Chart godoc
// @Summary Per-day minutes over a trailing window
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window size in days (default 7)"
// @Param user_id query int false "View another user's chart (admin only)"
// @Success 200 {object} map[string]int
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /chart-data [get]
func (h *StatsHandler) Chart(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	chart, err := h.statsService.Chart(c.Request().Context(), actor, uint(queryInt(c, "user_id")), queryInt(c, "days"))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, chart)
}
