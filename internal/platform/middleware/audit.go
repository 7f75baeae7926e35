package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/connectcare/telehealth/internal/platform/apperr"
	"github.com/connectcare/telehealth/internal/platform/auth"
)

// AuditEntry records one access to consultation data.
type AuditEntry struct {
	SubjectID  int64
	Role       string
	Action     string // read, create, update
	Resource   string
	ResourceID string
	Route      string
	Method     string
	IPAddress  string
	UserAgent  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// AuditRecorder persists audit entries somewhere other than the log.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs who touched which record once the handler has run. Mount it
// after RequireAuth so the session is available.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			req := c.Request()
			entry := AuditEntry{
				Action:     methodToAction(req.Method),
				Resource:   resourceFromRoute(c.Path()),
				ResourceID: resourceID(c),
				Route:      c.Path(),
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: c.Response().Status,
				Timestamp:  time.Now().UTC(),
			}
			if err != nil {
				entry.StatusCode, _ = apperr.Status(err)
			}
			if s, ok := auth.SessionFromContext(req.Context()); ok {
				entry.SubjectID = s.SubjectID
				entry.Role = string(s.Role)
			}
			entry.RequestID, _ = c.Get("request_id").(string)

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).Str("request_id", entry.RequestID).Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Int64("subject_id", entry.SubjectID).
				Str("role", entry.Role).
				Str("action", entry.Action).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("route", entry.Route).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("record_access")

			return err
		}
	}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceFromRoute returns the first segment of a route template:
// "/consultations/:id" -> "consultations".
func resourceFromRoute(route string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(route, "/"), "/")
	if seg == "" {
		return "unknown"
	}
	return seg
}

// resourceID names the record addressed by the route, if any.
func resourceID(c echo.Context) string {
	for _, name := range c.ParamNames() {
		if v := c.Param(name); v != "" {
			return name + "=" + v
		}
	}
	return ""
}
