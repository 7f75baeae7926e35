package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Status maps an error onto an HTTP status code and a client-safe message.
// Anything not in the taxonomy collapses to a generic 500.
func Status(err error) (int, string) {
	var ve *ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, ErrDuplicateIdentity):
		return http.StatusConflict, ErrDuplicateIdentity.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrInvalidCredentials.Error()
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// HTTPErrorHandler renders errors returned by handlers as {"error": ...}
// bodies. Server errors are logged with their detail and returned to the
// client with a generic message.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := Status(err)
		if code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}

		body := map[string]string{"error": msg}
		var ve *ValidationError
		if errors.As(err, &ve) && ve.Field != "" {
			body["field"] = ve.Field
			body["error"] = ve.Message
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}
