// Package metrics exposes the portal's Prometheus collectors and the
// /metrics handler. Collectors register against the default registry at
// package load; callers record through the helper functions instead of
// touching the collectors directly.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcome labels. RecordLogin accepts these values only; anything else
// is folded into LoginOutcomeError to keep the label cardinality fixed.
const (
	LoginOutcomeSuccess   = "success"
	LoginOutcomeInvalid   = "invalid_credentials"
	LoginOutcomeThrottled = "throttled"
	LoginOutcomeError     = "error"
)

// Email outcome labels.
const (
	EmailOutcomeSent   = "sent"
	EmailOutcomeFailed = "failed"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by method, route pattern, and status code.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "portal",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	bookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "bookings_created_total",
		Help:      "Bookings written successfully, counting every occurrence of a series.",
	})

	bookingConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "booking_conflicts_total",
		Help:      "Booking writes rejected because the slot was already taken.",
	})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "logins_total",
		Help:      "Login attempts, by outcome.",
	}, []string{"outcome"})

	emailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "notification_emails_total",
		Help:      "Notification emails dispatched, by outcome.",
	}, []string{"outcome"})
)

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest counts one served request and observes its latency. The
// route should be the router's pattern, not the raw path, so IDs do not
// explode the label space.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordBookingsCreated counts successfully written bookings.
func RecordBookingsCreated(count int) {
	if count <= 0 {
		return
	}
	bookingsCreatedTotal.Add(float64(count))
}

// RecordBookingConflict counts one rejected booking write.
func RecordBookingConflict() {
	bookingConflictsTotal.Inc()
}

// RecordLogin counts one login attempt.
func RecordLogin(outcome string) {
	switch outcome {
	case LoginOutcomeSuccess, LoginOutcomeInvalid, LoginOutcomeThrottled:
	default:
		outcome = LoginOutcomeError
	}
	loginsTotal.WithLabelValues(outcome).Inc()
}

// RecordEmail counts one notification email outcome.
func RecordEmail(outcome string) {
	if outcome != EmailOutcomeSent {
		outcome = EmailOutcomeFailed
	}
	emailsTotal.WithLabelValues(outcome).Inc()
}
