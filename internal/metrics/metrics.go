// Package metrics provides Prometheus instrumentation for the RiskLens backend.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var scoreBuckets = []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

var (
	// AnalysesTotal counts engine runs, partitioned by engine (risk, behavior, simulation).
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risklens_analyses_total",
		Help: "Total number of engine evaluations",
	}, []string{"engine"})

	// AnalysisDuration tracks a full portfolio analysis.
	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "risklens_analysis_duration_seconds",
		Help:    "Full analysis duration in seconds",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})

	// CompositeScores records the distribution of composite scores per engine.
	CompositeScores = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "risklens_composite_score",
		Help:    "Composite scores produced by the engines",
		Buckets: scoreBuckets,
	}, []string{"engine"})

	// SuggestionsReturned records how many rebalance suggestions survived ranking.
	SuggestionsReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "risklens_suggestions_returned",
		Help:    "Rebalance suggestions returned per request",
		Buckets: []float64{0, 1, 2, 3},
	})

	// MutationsTotal counts portfolio writes by operation.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risklens_portfolio_mutations_total",
		Help: "Portfolio mutations by operation",
	}, []string{"op"})

	// RateLimited counts rejected requests by limiter.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risklens_rate_limited_total",
		Help: "Requests rejected by a rate limiter",
	}, []string{"limiter"})

	// JobRunsTotal counts scheduler job runs by job and outcome.
	JobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risklens_job_runs_total",
		Help: "Scheduled job runs",
	}, []string{"job", "status"})

	// StreamClients tracks connected WebSocket clients.
	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "risklens_stream_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risklens_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "risklens_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "route"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics labelled by the mux route template.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := routeTemplate(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
