package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// Probe endpoints that load balancers hit without credentials.
var publicPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
}

// AuthSkipper lets health probes through unauthenticated. It checks the
// matched route and falls back to the raw URL path for unrouted requests.
func AuthSkipper(c echo.Context) bool {
	if p := c.Path(); p != "" {
		return IsPublicPath(p)
	}
	return IsPublicPath(c.Request().URL.Path)
}

// IsPublicPath reports whether path, ignoring a trailing slash, is a probe
// endpoint.
func IsPublicPath(path string) bool {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return publicPaths[path]
}
