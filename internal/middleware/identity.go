package middleware

// identity.go holds the identity extraction shared by the cache and
// rate-limit key builders. JWTAuth stores the sub claim as decoded by
// the JWT library, so the value may arrive as a float64 or a string.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID returns a stable string identity for the request, or
// "anon" when the request is unauthenticated.
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	}
	return "anon"
}
