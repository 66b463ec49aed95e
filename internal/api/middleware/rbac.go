package middleware

import (
	"fmt"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/tenantgate/identity-gateway/internal/api/metrics"
	"github.com/tenantgate/identity-gateway/internal/core/domain"
	"github.com/tenantgate/identity-gateway/internal/core/token"
)

// RBAC admits only identities whose role is in roles. It must run after Auth;
// a request without a verified identity is rejected.
func RBAC(roles ...domain.Role) echo.MiddlewareFunc {
	roles = slices.Clone(roles)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := token.IdentityFromContext(c.Request().Context())
			if !ok {
				metrics.AuthRejectedTotal.WithLabelValues("missing").Inc()
				return forbidden(domain.ErrUnauthenticated)
			}
			if !slices.Contains(roles, identity.Role()) {
				metrics.AuthRejectedTotal.WithLabelValues("role").Inc()
				return forbidden(fmt.Errorf("%w: role %s", domain.ErrForbidden, identity.Role()))
			}
			return next(c)
		}
	}
}
