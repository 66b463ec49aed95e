package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tenantgate/identity-gateway/internal/core/ports"
)

// UserHandler serves user lookups. The tenant always comes from the caller's
// verified token.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List handles GET /api/users.
//
// @Summary      List users of the caller's tenant
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.IdentitySummary
// @Failure      403  {object}  ErrorResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	users, err := h.users.ListByTenant(c.Request().Context(), caller.TenantID())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get handles GET /api/users/:id.
//
// @Summary      Get a user of the caller's tenant
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  domain.IdentitySummary
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetByID(c.Request().Context(), c.Param("id"), caller.TenantID())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Me handles GET /api/users/me.
//
// @Summary      Get the caller's own summary
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.IdentitySummary
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetByID(c.Request().Context(), caller.Subject(), caller.TenantID())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
