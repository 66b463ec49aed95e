package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tenantgate/identity-gateway/internal/api/metrics"
	"github.com/tenantgate/identity-gateway/internal/core/domain"
	"github.com/tenantgate/identity-gateway/internal/core/token"
)

// Access is the policy applied to a route.
type Access int

const (
	AccessDeny Access = iota
	AccessPublic
	AccessAuthenticated
)

// RouteRule binds a path pattern to an access policy. A pattern ending in
// "/**" matches the prefix itself and everything below it; any other pattern
// matches only the exact path.
type RouteRule struct {
	Pattern string
	Access  Access
}

// RouteRules is evaluated first-match-wins. Unmatched paths are denied.
type RouteRules []RouteRule

// DefaultRouteRules is the gateway's route policy.
var DefaultRouteRules = RouteRules{
	{Pattern: "/api/auth/**", Access: AccessPublic},
	{Pattern: "/health/**", Access: AccessPublic},
	{Pattern: "/metrics", Access: AccessPublic},
	{Pattern: "/swagger/**", Access: AccessPublic},
	{Pattern: "/api/**", Access: AccessAuthenticated},
}

// Resolve returns the access policy for the escaped request path p. Paths are
// matched as given, without cleaning, because that is what the router sees.
// Dot segments and encoded separators are denied.
func (r RouteRules) Resolve(p string) Access {
	if !strings.HasPrefix(p, "/") || hasUnsafeSegment(p) {
		return AccessDeny
	}
	for _, rule := range r {
		if matchPattern(rule.Pattern, p) {
			return rule.Access
		}
	}
	return AccessDeny
}

func matchPattern(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	return p == pattern
}

// TokenVerifier verifies a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (token.Identity, error)
}

// Auth is the authentication gate. Public routes pass through untouched.
// Authenticated routes need a valid bearer token; the verified identity is
// attached to the request context and nothing is attached on failure.
// Missing and invalid credentials are both rejected with 403 and carry
// domain.ErrUnauthenticated; denied routes carry domain.ErrForbidden.
func Auth(verifier TokenVerifier, rules RouteRules, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			p := RequestPath(req)

			switch rules.Resolve(p) {
			case AccessPublic:
				return next(c)
			case AccessDeny:
				metrics.AuthRejectedTotal.WithLabelValues("denied").Inc()
				log.Debug().Str("path", p).Msg("route denied")
				return forbidden(domain.ErrForbidden)
			}

			raw, ok := bearerToken(req.Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.AuthRejectedTotal.WithLabelValues("missing").Inc()
				return forbidden(domain.ErrUnauthenticated)
			}

			identity, err := verifier.Verify(raw)
			if err != nil {
				reason := rejectReason(err)
				metrics.AuthRejectedTotal.WithLabelValues(reason).Inc()
				log.Debug().Str("reason", reason).Str("path", p).Msg("token rejected")
				return forbidden(fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err))
			}

			c.SetRequest(req.WithContext(token.WithIdentity(req.Context(), identity)))
			return next(c)
		}
	}
}

// forbidden wraps cause in a 403 so gates work with or without the central
// error handler.
func forbidden(cause error) *echo.HTTPError {
	msg := "authentication required"
	if errors.Is(cause, domain.ErrForbidden) {
		msg = "access forbidden"
	}
	return echo.NewHTTPError(http.StatusForbidden, msg).SetInternal(cause)
}

// bearerToken extracts the credential from an "Authorization: Bearer <token>"
// header value.
func bearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}
