package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"actilog/internal/auth"
	"actilog/internal/errors"
	"actilog/internal/handler"
	"actilog/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	authHandler *handler.AuthHandler,
	entryHandler *handler.EntryHandler,
	syncHandler *handler.SyncHandler,
	statsHandler *handler.StatsHandler,
	courtierHandler *handler.CourtierHandler,
	adminHandler *handler.AdminHandler,
	wsHandler *handler.WSHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/api-docs/*", echoSwagger.WrapHandler)

	// The live channel authenticates inside the handler: browsers cannot
	// set headers on websocket dials, so the token rides a query param.
	e.GET("/ws", wsHandler.Serve)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization,
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			return parseToken(c, jwtService, tokenStore, tokenString)
		},
	}))

	// Auth
	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/me", authHandler.Me)
	secured.PUT("/auth/password", authHandler.ChangePassword)
	secured.POST("/auth/register", authHandler.Register, adminOnly)

	// Entries
	secured.POST("/entries", entryHandler.Create)
	secured.GET("/entries", entryHandler.List)
	secured.DELETE("/entries/:id", entryHandler.Delete)

	// Offline queue reconciliation
	secured.POST("/sync", syncHandler.Sync)

	// Stats
	secured.GET("/stats", statsHandler.Today)
	secured.GET("/stats/dashboard", statsHandler.Dashboard)
	secured.GET("/chart-data", statsHandler.Chart)

	// Courtiers
	secured.GET("/courtiers", courtierHandler.List)
	secured.POST("/courtiers", courtierHandler.Create)

	// Administration
	admin := secured.Group("/admin", adminOnly)
	admin.GET("/overview", adminHandler.Overview)
	admin.GET("/users", adminHandler.ListUsers)
	admin.PUT("/users/:id/toggle", adminHandler.ToggleUser)
	admin.PUT("/courtiers/:id/toggle", adminHandler.ToggleCourtier)
	admin.DELETE("/courtiers/:id", adminHandler.DeleteCourtier)
	admin.GET("/reports", adminHandler.Reports)
	admin.GET("/export", adminHandler.Export)
	admin.GET("/live-stats", adminHandler.LiveStats)
	admin.GET("/backups", adminHandler.ListBackups)
	admin.POST("/backups", adminHandler.CreateBackup)
	admin.GET("/backups/:filename", adminHandler.DownloadBackup)
	admin.DELETE("/backups/:filename", adminHandler.DeleteBackup)
	admin.POST("/broadcast", adminHandler.Broadcast)
}

// parseToken validates the signature and rejects blacklisted (logged-out)
// access tokens. The returned claims land in the request context under the
// middleware's default key.
func parseToken(c echo.Context, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, tokenString string) (interface{}, error) {
	claims, err := jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	blacklisted, err := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, errors.ErrTokenRevoked
	}
	return claims, nil
}

// adminOnly rejects non-admin callers. It must run after the JWT middleware.
func adminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := c.Get("user").(*auth.Claims)
		if !ok || claims.Role != model.RoleAdmin {
			httpErr := errors.MapErrorToHTTP(errors.ErrForbidden)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		return next(c)
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
