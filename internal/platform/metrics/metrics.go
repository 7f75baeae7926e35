// Package metrics exposes Prometheus instruments for the HTTP surface and the
// registration, booking and notification flows.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry and the collectors registered on it. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	bookings      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	reconciled    prometheus.Counter
	recordAccess  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_registrations_total",
			Help: "Registration attempts by primary channel and outcome.",
		}, []string{"channel", "outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_logins_total",
			Help: "Login attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consultations_booked_total",
			Help: "Consultation booking attempts by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Booking notifications by channel and outcome.",
		}, []string{"channel", "outcome"}),
		reconciled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patient_profiles_reconciled_total",
			Help: "Patient profiles created by the reconciliation job.",
		}),
		recordAccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "record_access_total",
			Help: "Audited record accesses by resource, action and status class.",
		}, []string{"resource", "action", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		m.registrations, m.logins, m.bookings, m.notifications, m.reconciled,
		m.recordAccess,
	)
	return m
}

// Registry exposes the underlying registry, e.g. for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// HTTP returns echo middleware recording request counts and latency. The
// route template is used as the label to keep cardinality bounded.
func (m *Metrics) HTTP() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			m.httpInFlight.Inc()
			defer m.httpInFlight.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)
			m.httpRequestDuration.WithLabelValues(c.Request().Method, route, status).Observe(time.Since(start).Seconds())
			m.httpRequestsTotal.WithLabelValues(c.Request().Method, route, status).Inc()
			return nil
		}
	}
}

func (m *Metrics) Registration(channel, outcome string) {
	if m != nil {
		m.registrations.WithLabelValues(channel, outcome).Inc()
	}
}

func (m *Metrics) Login(channel, outcome string) {
	if m != nil {
		m.logins.WithLabelValues(channel, outcome).Inc()
	}
}

func (m *Metrics) Booking(outcome string) {
	if m != nil {
		m.bookings.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Notification(channel, outcome string) {
	if m != nil {
		m.notifications.WithLabelValues(channel, outcome).Inc()
	}
}

// RecordAccess counts one audited access. Status codes are bucketed by
// class ("2xx", "4xx", ...).
func (m *Metrics) RecordAccess(resource, action string, status int) {
	if m != nil {
		m.recordAccess.WithLabelValues(resource, action, strconv.Itoa(status/100)+"xx").Inc()
	}
}

func (m *Metrics) ProfilesReconciled(n int) {
	if m != nil && n > 0 {
		m.reconciled.Add(float64(n))
	}
}
