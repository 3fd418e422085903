package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"actilog/internal/errors"
	"actilog/internal/service"
)

// CourtierHandler handles the broker referential endpoints.
type CourtierHandler struct {
	courtierService service.CourtierService
}

// NewCourtierHandler creates a new courtier handler.
func NewCourtierHandler(courtierService service.CourtierService) *CourtierHandler {
	return &CourtierHandler{courtierService: courtierService}
}

// CreateCourtierRequest represents a courtier creation request.
type CreateCourtierRequest struct {
	Name   string `json:"name" validate:"required,max=255"`
	OdooID *int   `json:"odoo_id"`
}

// List godoc
// @Summary List courtiers
// @Tags courtiers
// @Produce json
// @Security BearerAuth
// @Param include_inactive query bool false "Include deactivated courtiers (admin only)"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} errors.ErrorResponse
// @Router /courtiers [get]
func (h *CourtierHandler) List(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	// Deactivated courtiers are an admin screen concern; standard users
	// always get the active referential.
	includeInactive := actor.Admin && c.QueryParam("include_inactive") == "true"

	courtiers, err := h.courtierService.List(c.Request().Context(), includeInactive)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"courtiers": courtiers,
	})
}

// Create godoc
// @Summary Add a courtier
// @Description Open to every authenticated user so the entry form never
// @Description dead-ends on a missing broker.
// @Tags courtiers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCourtierRequest true "Courtier data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /courtiers [post]
func (h *CourtierHandler) Create(c echo.Context) error {
	var req CreateCourtierRequest
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

	courtier, err := h.courtierService.Create(c.Request().Context(), req.Name, req.OdooID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":  "courtier created successfully",
		"courtier": courtier,
	})
}
