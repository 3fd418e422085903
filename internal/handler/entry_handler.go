package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"actilog/internal/errors"
	"actilog/internal/model"
	"actilog/internal/repository"
	"actilog/internal/service"
)

// EntryHandler handles time entry endpoints.
type EntryHandler struct {
	entryService service.EntryService
}

// NewEntryHandler creates a new entry handler.
func NewEntryHandler(entryService service.EntryService) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

// EntryRequest represents an entry submission. Domain rules (courtier
// referential checks, duration, date format) are enforced by the service
// so the sync path reports the same reasons.
type EntryRequest struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	CourtierID  uint   `json:"courtier_id"`
	Minutes     int    `json:"minutes"`
	ActeType    string `json:"acte_type"`
	ActeGestion string `json:"acte_de_gestion" validate:"omitempty,max=200"`
	Dossier     string `json:"dossier" validate:"omitempty,max=100"`
	ClientName  string `json:"client_name" validate:"omitempty,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

func (r EntryRequest) toDraft() service.EntryDraft {
	return service.EntryDraft{
		Date:        r.Date,
		Time:        r.Time,
		CourtierID:  r.CourtierID,
		Minutes:     r.Minutes,
		ActeType:    r.ActeType,
		ActeGestion: r.ActeGestion,
		Dossier:     r.Dossier,
		ClientName:  r.ClientName,
		Description: r.Description,
	}
}

// Create godoc
// @Summary Record a time entry
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EntryRequest true "Entry data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /entries [post]
func (h *EntryHandler) Create(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req EntryRequest
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

	entry, err := h.entryService.Create(c.Request().Context(), claims.UserID, req.toDraft())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "entry created successfully",
		"entry":   entry.View(),
	})
}

// List godoc
// @Summary List entries with filters
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param per_page query int false "Page size"
// @Param user_id query int false "Filter by user (admin only)"
// @Param courtier_id query int false "Filter by courtier"
// @Param acte_type query string false "Filter by acte type"
// @Param client_name query string false "Filter by client name substring"
// @Param start_date query string false "Earliest date (YYYY-MM-DD)"
// @Param end_date query string false "Latest date (YYYY-MM-DD)"
// @Success 200 {object} service.EntryList
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /entries [get]
func (h *EntryHandler) List(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	filter := repository.EntryFilter{
		Page:       queryInt(c, "page"),
		PerPage:    queryInt(c, "per_page"),
		UserID:     uint(queryInt(c, "user_id")),
		CourtierID: uint(queryInt(c, "courtier_id")),
		ActeType:   model.ActeType(c.QueryParam("acte_type")),
		ClientName: c.QueryParam("client_name"),
	}

	if raw := c.QueryParam("start_date"); raw != "" {
		day, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			httpErr := errors.MapErrorToHTTP(errors.ErrInvalidDate)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		filter.StartDate = &day
	}
	if raw := c.QueryParam("end_date"); raw != "" {
		day, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			httpErr := errors.MapErrorToHTTP(errors.ErrInvalidDate)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		filter.EndDate = &day
	}

	list, err := h.entryService.List(c.Request().Context(), actor, filter)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, list)
}

// Delete godoc
// @Summary Delete an entry
// @Tags entries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /entries/{id} [delete]
func (h *EntryHandler) Delete(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	entryID, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.entryService.Delete(c.Request().Context(), actor, entryID); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "entry deleted successfully",
	})
}

// queryInt parses an integer query parameter, returning 0 when absent or
// malformed.
func queryInt(c echo.Context, name string) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return v
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid id",
			Code:  "INVALID_ID",
		})
	}
	return uint(id), nil
}
