package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const sessionKey contextKey = "session"

// TokenValidator verifies a raw bearer token.
type TokenValidator interface {
	Validate(token string) (*Session, error)
}

// RequireAuth rejects requests without a valid bearer token and attaches the
// validated session to the request context.
func RequireAuth(v TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "no token provided")
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			session, err := v.Validate(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("user_id", session.SubjectID)
			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), session)))
			return next(c)
		}
	}
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session attached by RequireAuth.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}

func SubjectIDFromContext(ctx context.Context) int64 {
	if s, ok := SessionFromContext(ctx); ok {
		return s.SubjectID
	}
	return 0
}

func RoleFromContext(ctx context.Context) Role {
	if s, ok := SessionFromContext(ctx); ok {
		return s.Role
	}
	return ""
}
