package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tenantgate/identity-gateway/internal/core/token"
)

// callerIdentity returns the identity attached by the Auth middleware. Its
// absence means the route was wired without the gate; fail closed.
func callerIdentity(c echo.Context) (token.Identity, error) {
	id, ok := token.IdentityFromContext(c.Request().Context())
	if !ok {
		return token.Identity{}, echo.NewHTTPError(http.StatusForbidden, "authentication required")
	}
	return id, nil
}
