package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
)

// Recovery turns a handler panic into an ordinary error. The panic and its
// stack are logged here; the returned error carries only the panic value and
// is rendered by apperr.HTTPErrorHandler as a generic 500.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var err error
			var pc panics.Catcher
			pc.Try(func() { err = next(c) })

			rec := pc.Recovered()
			if rec == nil {
				return err
			}
			rid, _ := c.Get("request_id").(string)
			logger.Error().
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Str("panic", fmt.Sprint(rec.Value)).
				Bytes("stack", rec.Stack).
				Msg("panic recovered")
			return fmt.Errorf("recovered panic: %v", rec.Value)
		}
	}
}
