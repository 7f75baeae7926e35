package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that checks the session role against roles.
// Admins pass every role gate. Must run after RequireAuth.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, ok := SessionFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "no token provided")
			}
			if HasRole(session.Role, roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(names, " or ")))
		}
	}
}

// HasRole reports whether have satisfies any of want.
func HasRole(have Role, want ...Role) bool {
	if have == RoleAdmin {
		return true
	}
	for _, r := range want {
		if have == r {
			return true
		}
	}
	return false
}
