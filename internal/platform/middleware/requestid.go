package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const RequestIDHeader = echo.HeaderXRequestID

// RequestID propagates an inbound X-Request-ID or assigns a new UUID. The id
// is stored on the echo context as "request_id" and attached to the request
// context logger so background work started by the request can log it.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" || len(rid) > 128 {
				rid = uuid.NewString()
			}

			c.Set("request_id", rid)
			c.Response().Header().Set(RequestIDHeader, rid)

			ctx := c.Request().Context()
			logger := zerolog.Ctx(ctx).With().Str("request_id", rid).Logger()
			c.SetRequest(c.Request().WithContext(logger.WithContext(ctx)))

			return next(c)
		}
	}
}
