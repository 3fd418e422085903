package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"actilog/internal/errors"
	"actilog/internal/service"
)

// SyncHandler replays offline entry queues.
type SyncHandler struct {
	syncService service.SyncService
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(syncService service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// SyncDraft is one queued entry with its client-side identifier.
type SyncDraft struct {
	TempID string `json:"temp_id"`
	EntryRequest
}

// SyncRequest represents an offline queue flush.
type SyncRequest struct {
	Entries []SyncDraft `json:"entries"`
}

// Sync godoc
// @Summary Replay offline entry drafts
// @Tags sync
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SyncRequest true "Queued drafts"
// @Success 200 {object} service.SyncManifest
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /sync [post]
func (h *SyncHandler) Sync(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req SyncRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}

	drafts := make([]service.EntryDraft, 0, len(req.Entries))
	for _, d := range req.Entries {
		draft := d.toDraft()
		draft.TempID = d.TempID
		drafts = append(drafts, draft)
	}

	manifest, err := h.syncService.Process(c.Request().Context(), claims.UserID, drafts)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, manifest)
}
