package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"actilog/internal/auth"
	"actilog/internal/errors"
	"actilog/internal/realtime"
)

// WSHandler upgrades authenticated connections onto the live event channel.
type WSHandler struct {
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	hub        *realtime.Hub
	upgrader   websocket.Upgrader
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, hub *realtime.Hub) *WSHandler {
	return &WSHandler{
		jwtService: jwtService,
		tokenStore: tokenStore,
		hub:        hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth replaces origin checks: browsers cannot set
			// headers on websocket dials, so cross-origin is expected.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve godoc
// @Summary Subscribe to live events
// @Description Upgrades to a websocket carrying entry_added, user_connected, user_disconnected and system_message events.
// @Tags events
// @Security BearerAuth
// @Param token query string false "Access token (alternative to Authorization header)"
// @Success 101
// @Failure 401 {object} errors.ErrorResponse
// @Router /ws [get]
func (h *WSHandler) Serve(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	}
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "missing token",
			Code:  "UNAUTHORIZED",
		})
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid or expired token",
			Code:  "UNAUTHORIZED",
		})
	}

	blacklisted, err := h.tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
	if err != nil || blacklisted {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid or expired token",
			Code:  "UNAUTHORIZED",
		})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote its own response.
		return nil
	}

	h.hub.HandleConn(conn, claims.UserID, claims.Username)
	return nil
}
