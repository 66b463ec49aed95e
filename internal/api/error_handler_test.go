package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tenantgate/identity-gateway/internal/api/handler"
	"github.com/tenantgate/identity-gateway/internal/core/domain"
	"github.com/tenantgate/identity-gateway/internal/core/token"
)

func renderError(t *testing.T, err error) (int, handler.ErrorResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/users", nil), rec)

	NewHTTPErrorHandler(zerolog.New(io.Discard))(err, c)

	var body handler.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return rec.Code, body
}

func TestHTTPErrorHandler_Taxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", fmt.Errorf("%w: bad slug", domain.ErrValidation), http.StatusBadRequest, "validation failed: bad slug"},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"tenant conflict", domain.ErrTenantAlreadyExists, http.StatusConflict, "tenant slug already taken"},
		{"user conflict", domain.ErrUserExists, http.StatusConflict, "user already exists"},
		{"not found", fmt.Errorf("get user: %w", domain.ErrUserNotFound), http.StatusNotFound, "user not found"},
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusForbidden, "authentication required"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
		{"persistence", errors.New("connection reset by peer"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		code, body := renderError(t, tc.err)
		if code != tc.code || body.Message != tc.msg || body.Error != http.StatusText(tc.code) {
			t.Fatalf("%s: got %d %+v, want %d %q", tc.name, code, body, tc.code, tc.msg)
		}
	}
}

func TestHTTPErrorHandler_GateErrorsUseDomainMapping(t *testing.T) {
	verr := &token.VerificationError{Kind: token.ErrExpired}
	gateErr := echo.NewHTTPError(http.StatusForbidden, "token expired at 12:00").
		SetInternal(fmt.Errorf("%w: %w", domain.ErrUnauthenticated, verr))

	code, body := renderError(t, gateErr)
	if code != http.StatusForbidden || body.Message != "authentication required" {
		t.Fatalf("unexpected response: %d %+v", code, body)
	}
}

func TestHTTPErrorHandler_PlainHTTPError(t *testing.T) {
	code, body := renderError(t, echo.NewHTTPError(http.StatusBadRequest, "invalid payload"))
	if code != http.StatusBadRequest || body.Message != "invalid payload" || body.Error != "Bad Request" {
		t.Fatalf("unexpected response: %d %+v", code, body)
	}
}
