package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_DomainCounters(t *testing.T) {
	m := New()
	m.Registration("email", "created")
	m.Registration("email", "created")
	m.Registration("phone", "duplicate")
	m.Notification("sms", "sent")
	m.Booking("created")
	m.ProfilesReconciled(3)
	m.ProfilesReconciled(0)

	if got := testutil.ToFloat64(m.registrations.WithLabelValues("email", "created")); got != 2 {
		t.Errorf("expected 2 email registrations, got %v", got)
	}
	if got := testutil.ToFloat64(m.notifications.WithLabelValues("sms", "sent")); got != 1 {
		t.Errorf("expected 1 sms notification, got %v", got)
	}
	if got := testutil.ToFloat64(m.reconciled); got != 3 {
		t.Errorf("expected 3 reconciled, got %v", got)
	}
}

func TestMetrics_RecordAccess(t *testing.T) {
	m := New()
	m.RecordAccess("consultations", "read", 200)
	m.RecordAccess("consultations", "read", 204)
	m.RecordAccess("consultations", "update", 403)

	if got := testutil.ToFloat64(m.recordAccess.WithLabelValues("consultations", "read", "2xx")); got != 2 {
		t.Errorf("expected 2 successful reads, got %v", got)
	}
	if got := testutil.ToFloat64(m.recordAccess.WithLabelValues("consultations", "update", "4xx")); got != 1 {
		t.Errorf("expected 1 rejected update, got %v", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Registration("email", "created")
	m.Login("email", "ok")
	m.Booking("created")
	m.Notification("email", "failed")
	m.ProfilesReconciled(1)
	m.RecordAccess("patients", "read", 200)
}

func TestMetrics_HTTPMiddlewareAndHandler(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.HTTP())
	e.GET("/consultations/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/consultations/7", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}

	got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/consultations/:id", "200"))
	if got != 2 {
		t.Errorf("expected 2 requests recorded on route template, got %v", got)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Error("expected exposition to include http_requests_total")
	}
}
