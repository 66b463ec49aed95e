package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequestPath returns the path the echo router matches on: the escaped
// RawPath when the request has one, otherwise Path. Both gates classify
// requests by this value so they always agree with routing.
func RequestPath(req *http.Request) string {
	return echo.GetPath(req)
}

// hasUnsafeSegment reports whether the escaped path p contains a segment that
// decodes to "." or "..", or one that hides a path separator behind
// percent-encoding. Such paths are never evaluated against route rules.
func hasUnsafeSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return true
		}
		if decoded == "." || decoded == ".." || strings.ContainsAny(decoded, `/\`) {
			return true
		}
	}
	return false
}
