package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"actilog/internal/auth"
	"actilog/internal/errors"
	"actilog/internal/model"
	"actilog/internal/service"
)

// claimsKey is the echo context key the JWT middleware stores parsed
// claims under.
const claimsKey = "user"

func currentClaims(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(claimsKey).(*auth.Claims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "missing or invalid token",
			Code:  "UNAUTHORIZED",
		})
	}
	return claims, nil
}

func currentActor(c echo.Context) (service.Actor, error) {
	claims, err := currentClaims(c)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{
		ID:    claims.UserID,
		Admin: claims.Role == model.RoleAdmin,
	}, nil
}
