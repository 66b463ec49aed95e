package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tenantgate/identity-gateway/internal/api/metrics"
	"github.com/tenantgate/identity-gateway/internal/core/domain"
	"github.com/tenantgate/identity-gateway/internal/core/ports"
)

type AuthHandler struct {
	accounts ports.AccountService
}

func NewAuthHandler(accounts ports.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type registerRequest struct {
	TenantName string `json:"tenantName" validate:"required,max=100"`
	TenantSlug string `json:"tenantSlug" validate:"required,min=3,max=50,slug"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	UserName   string `json:"userName" validate:"required,max=100"`
}

type loginRequest struct {
	TenantSlug string `json:"tenantSlug"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type authResponse struct {
	Token     string                 `json:"token"`
	TokenType string                 `json:"tokenType"`
	User      domain.IdentitySummary `json:"user"`
}

// Register creates a tenant and its first (admin) user.
//
// @Summary      Register a tenant
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Tenant and admin details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      429   {object}  map[string]string
// @Failure      500   {object}  ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		metrics.AccountOperationsTotal.WithLabelValues("register", "invalid_input").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.AccountOperationsTotal.WithLabelValues("register", "invalid_input").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		TenantName: req.TenantName,
		TenantSlug: req.TenantSlug,
		Email:      req.Email,
		Password:   req.Password,
		UserName:   req.UserName,
	})
	if err != nil {
		metrics.AccountOperationsTotal.WithLabelValues("register", outcome(err)).Inc()
		return err
	}

	metrics.AccountOperationsTotal.WithLabelValues("register", "success").Inc()
	return c.JSON(http.StatusCreated, authResponse{Token: res.Token, TokenType: "Bearer", User: res.Summary})
}

// Login authenticates a user inside a tenant and returns a token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Tenant-scoped credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      429   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.AccountOperationsTotal.WithLabelValues("login", "invalid_input").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.accounts.Login(c.Request().Context(), ports.LoginInput{
		TenantSlug: req.TenantSlug,
		Email:      req.Email,
		Password:   req.Password,
	})
	if err != nil {
		metrics.AccountOperationsTotal.WithLabelValues("login", outcome(err)).Inc()
		return err
	}

	metrics.AccountOperationsTotal.WithLabelValues("login", "success").Inc()
	return c.JSON(http.StatusOK, authResponse{Token: res.Token, TokenType: "Bearer", User: res.Summary})
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrTenantAlreadyExists):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrValidation):
		return "invalid_input"
	default:
		return "error"
	}
}
