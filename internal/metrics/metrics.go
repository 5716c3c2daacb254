// Package metrics exposes Prometheus collectors for HTTP traffic and evaluator calls
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluation outcomes
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
)

// Metrics holds the registered collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	evaluations        *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
}

// New creates and registers all collectors on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_http_requests_total",
			Help: "Number of HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assessment_http_request_duration_seconds",
			Help:    "HTTP request latencies by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_evaluator_calls_total",
			Help: "Number of external evaluator calls by evaluator and outcome.",
		}, []string{"evaluator", "outcome"}),
		evaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assessment_evaluator_call_duration_seconds",
			Help:    "External evaluator call latencies.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 50},
		}, []string{"evaluator"}),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration, m.evaluations, m.evaluationDuration)
	return m
}

// ObserveEvaluation records one evaluator call
func (m *Metrics) ObserveEvaluation(evaluator, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(evaluator, outcome).Inc()
	m.evaluationDuration.WithLabelValues(evaluator).Observe(duration.Seconds())
}

// Middleware records request counts and latencies labelled by chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(ww.statusCode)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the collected metrics
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
