// Package metrics defines the Prometheus instrumentation of the front end.
//
// Metric naming follows Prometheus conventions:
//   - contactbook_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
	LoginLocked  = "locked"
	LoginInvalid = "invalid"
)

// Guard rejection reasons.
const (
	RejectNoSession    = "no_session"
	RejectTokenInvalid = "token_invalid"
	RejectNotAdmin     = "not_admin"
)

// Metrics holds the collectors and the registry they are exposed from.
type Metrics struct {
	registry *prometheus.Registry

	// APICallsTotal counts remote API calls by operation and outcome.
	APICallsTotal *prometheus.CounterVec
	// APICallDuration is a histogram of remote API latency by operation.
	APICallDuration *prometheus.HistogramVec
	// HTTPRequestsTotal counts served requests by route pattern, method and status.
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration is a histogram of request latency by route pattern.
	HTTPRequestDuration *prometheus.HistogramVec
	// LoginAttemptsTotal counts login attempts by outcome.
	LoginAttemptsTotal *prometheus.CounterVec
	// GuardRejectionsTotal counts requests turned away by the session guard.
	GuardRejectionsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		APICallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactbook_api_calls_total",
				Help: "Total remote API calls by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		APICallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contactbook_api_call_duration_seconds",
				Help:    "Duration of remote API calls in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"op"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactbook_http_requests_total",
				Help: "Total HTTP requests served by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contactbook_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactbook_login_attempts_total",
				Help: "Total login attempts by outcome.",
			},
			[]string{"outcome"},
		),
		GuardRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactbook_guard_rejections_total",
				Help: "Total requests rejected by the session guard by reason.",
			},
			[]string{"reason"},
		),
	}

	m.registry.MustRegister(
		m.APICallsTotal,
		m.APICallDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginAttemptsTotal,
		m.GuardRejectionsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCall records one remote API call. It satisfies contactapi.Observer.
func (m *Metrics) ObserveCall(op string, status int, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APICallsTotal.WithLabelValues(op, callOutcome(status, err)).Inc()
	m.APICallDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func callOutcome(status int, err error) string {
	switch {
	case status == 0 && err != nil:
		return "transport_error"
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "auth_error"
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return "ok"
	}
}

// LoginAttempt records a login attempt outcome.
func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// GuardRejected records a request turned away by the session guard.
func (m *Metrics) GuardRejected(reason string) {
	if m == nil {
		return
	}
	m.GuardRejectionsTotal.WithLabelValues(reason).Inc()
}

// Middleware records request counts and latency by chi route pattern, so
// /Contact/Details/1 and /Contact/Details/2 share a series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
