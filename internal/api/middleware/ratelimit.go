package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tenantgate/identity-gateway/internal/api/metrics"
	"github.com/tenantgate/identity-gateway/internal/core/ratelimit"
)

// rateLimitResponse is the fixed body sent with every 429.
type rateLimitResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var tooManyRequests = rateLimitResponse{
	Error:   "Too Many Requests",
	Message: "Rate limit exceeded. Please try again later.",
}

// RateLimit is the rate-limit gate. It classifies the routed request path, keys the
// bucket by endpoint class and client address, and answers 429 when the bucket
// is empty. Paths outside the API prefix are not limited.
func RateLimit(limiter *ratelimit.Limiter, trustForwardedFor bool, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			class, policy, limited := ratelimit.Classify(RequestPath(req))
			if !limited {
				return next(c)
			}

			client := ClientAddress(req, trustForwardedFor)
			allowed := limiter.Allow(ratelimit.Key(class, client), policy)
			metrics.RateLimitBuckets.Set(float64(limiter.Len()))

			if !allowed {
				metrics.RateLimitRejectedTotal.WithLabelValues(string(class)).Inc()
				log.Warn().
					Str("class", string(class)).
					Str("client", client).
					Str("path", RequestPath(req)).
					Msg("rate limit exceeded")
				return c.JSON(http.StatusTooManyRequests, tooManyRequests)
			}
			return next(c)
		}
	}
}

// ClientAddress returns the first entry of X-Forwarded-For when present and
// trusted, otherwise the host part of the direct peer address.
func ClientAddress(req *http.Request, trustForwardedFor bool) string {
	if trustForwardedFor {
		if xff := req.Header.Get(echo.HeaderXForwardedFor); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
