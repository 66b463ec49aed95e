package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tenantgate/identity-gateway/internal/core/domain"
	"github.com/tenantgate/identity-gateway/internal/core/token"
)

func contextWithRole(t *testing.T, e *echo.Echo, role domain.Role) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	codec := newCodec(t)
	signed, _ := codec.Issue("user-1", "tenant-1", "a@acme.com", role)
	id, err := codec.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(token.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRBAC_Allows(t *testing.T) {
	e := echo.New()
	c, rec := contextWithRole(t, e, domain.RoleAdmin)

	called := false
	mw := RBAC(domain.RoleAdmin, domain.RoleUser)
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_Forbids(t *testing.T) {
	e := echo.New()
	c, rec := contextWithRole(t, e, domain.RoleUser)

	mw := RBAC(domain.RoleAdmin)
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	err := handler(c)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	e.HTTPErrorHandler(err, c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRBAC_RequiresIdentity(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RBAC(domain.RoleAdmin, domain.RoleUser)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
