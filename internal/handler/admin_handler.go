package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"actilog/internal/errors"
	"actilog/internal/model"
	"actilog/internal/realtime"
	"actilog/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler handles the administration endpoints.
type AdminHandler struct {
	userService     service.UserService
	courtierService service.CourtierService
	reportService   service.ReportService
	statsService    service.StatsService
	backupService   service.BackupService
	broadcaster     realtime.Broadcaster
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	userService service.UserService,
	courtierService service.CourtierService,
	reportService service.ReportService,
	statsService service.StatsService,
	backupService service.BackupService,
	broadcaster realtime.Broadcaster,
) *AdminHandler {
	return &AdminHandler{
		userService:     userService,
		courtierService: courtierService,
		reportService:   reportService,
		statsService:    statsService,
		backupService:   backupService,
		broadcaster:     broadcaster,
	}
}

// BroadcastRequest represents an admin system notice.
type BroadcastRequest struct {
	Message string `json:"message" validate:"required,max=500"`
	Level   string `json:"level" validate:"omitempty,oneof=info warning error"`
}

// Overview godoc
// @Summary Instance totals and current month leaders
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Overview
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/overview [get]
func (h *AdminHandler) Overview(c echo.Context) error {
	overview, err := h.reportService.Overview(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, overview)
}

// ListUsers godoc
// @Summary List user accounts with entry counts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.List(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

// ToggleUser godoc
// @Summary Activate or deactivate a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/users/{id}/toggle [put]
func (h *AdminHandler) ToggleUser(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Toggle(c.Request().Context(), actor, userID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "user status updated",
		"user":    user,
	})
}

// ToggleCourtier godoc
// @Summary Activate or deactivate a courtier
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Courtier ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/courtiers/{id}/toggle [put]
func (h *AdminHandler) ToggleCourtier(c echo.Context) error {
	courtierID, err := pathID(c)
	if err != nil {
		return err
	}

	courtier, err := h.courtierService.Toggle(c.Request().Context(), courtierID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "courtier status updated",
		"courtier": courtier,
	})
}

// DeleteCourtier godoc
// @Summary Delete a courtier without entries
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Courtier ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/courtiers/{id} [delete]
func (h *AdminHandler) DeleteCourtier(c echo.Context) error {
	courtierID, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.courtierService.Delete(c.Request().Context(), courtierID); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "courtier deleted successfully",
	})
}

// Reports godoc
// @Summary Monthly activity report with per-user and per-courtier totals
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param month query int false "Month 1-12 (default: current)"
// @Param year query int false "Year (default: current)"
// @Success 200 {object} service.MonthlyReport
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/reports [get]
func (h *AdminHandler) Reports(c echo.Context) error {
	report, err := h.reportService.Report(c.Request().Context(), queryInt(c, "month"), queryInt(c, "year"))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, report)
}

// Export godoc
// @Summary Download an xlsx activity report
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param period query string true "daily, monthly or yearly"
// @Param date query string false "Anchor date YYYY-MM-DD (default: today)"
// @Success 200 {file} binary
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/export [get]
func (h *AdminHandler) Export(c echo.Context) error {
	var anchor time.Time
	if raw := c.QueryParam("date"); raw != "" {
		day, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			httpErr := errors.MapErrorToHTTP(errors.ErrInvalidDate)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		anchor = day
	}

	filename, data, err := h.reportService.Export(c.Request().Context(), c.QueryParam("period"), anchor)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}

// LiveStats godoc
// @Summary Live instance counters
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.LiveStats
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/live-stats [get]
func (h *AdminHandler) LiveStats(c echo.Context) error {
	stats, err := h.statsService.Live(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, stats)
}

// ListBackups godoc
// @Summary List database backups
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/backups [get]
func (h *AdminHandler) ListBackups(c echo.Context) error {
	backups, err := h.backupService.List(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"backups": backups,
	})
}

// CreateBackup godoc
// @Summary Trigger a manual database backup
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/backups [post]
func (h *AdminHandler) CreateBackup(c echo.Context) error {
	backup, err := h.backupService.Create(c.Request().Context(), service.BackupManual)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, errors.ErrorResponse{
			Error: "backup failed",
			Code:  "BACKUP_FAILED",
		})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "backup created successfully",
		"backup":  backup,
	})
}

// DownloadBackup godoc
// @Summary Download a backup archive
// @Tags admin
// @Produce application/gzip
// @Security BearerAuth
// @Param filename path string true "Backup filename"
// @Success 200 {file} binary
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/backups/{filename} [get]
func (h *AdminHandler) DownloadBackup(c echo.Context) error {
	filename := c.Param("filename")
	path, err := h.backupService.Path(filename)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.Attachment(path, filename)
}

// DeleteBackup godoc
// @Summary Delete a backup archive
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param filename path string true "Backup filename"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/backups/{filename} [delete]
func (h *AdminHandler) DeleteBackup(c echo.Context) error {
	if err := h.backupService.Delete(c.Request().Context(), c.Param("filename")); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "backup deleted successfully",
	})
}

// Broadcast godoc
// @Summary Push a system notice to connected clients
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BroadcastRequest true "Notice"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/broadcast [post]
func (h *AdminHandler) Broadcast(c echo.Context) error {
	var req BroadcastRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	}

	if req.Level == "" {
		req.Level = "info"
	}
	h.broadcaster.SystemMessage(req.Message, req.Level)

	return c.JSON(http.StatusOK, map[string]string{
		"message": "notice broadcast",
	})
}
