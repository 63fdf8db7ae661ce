package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/risklens/internal/api/handlers"
	"github.com/wonny/risklens/internal/metrics"
	"github.com/wonny/risklens/pkg/logger"
	"github.com/wonny/risklens/pkg/redis"
)

// RouterDeps are the handlers and limiters the router wires together
type RouterDeps struct {
	Portfolio *handlers.PortfolioHandler
	Analyze   *handlers.AnalyzeHandler
	Health    *handlers.HealthHandler

	// Limiter is the global token bucket; nil disables it.
	Limiter *rate.Limiter
	// WriteLimiter limits mutations per user; nil disables it.
	WriteLimiter    *redis.RateLimiter
	WritesPerMinute int
	MetricsEnabled  bool
	Logger          *logger.Logger
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps RouterDeps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", deps.Health.Health).Methods("GET")
	if deps.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	if deps.Limiter != nil {
		api.Use(rateLimitMiddleware(deps.Limiter))
	}

	api.HandleFunc("/analyze", deps.Analyze.Analyze).Methods("POST")

	p := api.PathPrefix("/portfolios/{userID}").Subrouter()
	if deps.WriteLimiter != nil && deps.WritesPerMinute > 0 {
		p.Use(writeLimitMiddleware(deps.WriteLimiter, deps.WritesPerMinute, deps.Logger))
	}

	p.HandleFunc("/holdings", deps.Portfolio.ListHoldings).Methods("GET")
	p.HandleFunc("/holdings", deps.Portfolio.AddHolding).Methods("POST")
	p.HandleFunc("/holdings/{holdingID}", deps.Portfolio.RemoveHolding).Methods("DELETE")
	p.HandleFunc("/prices", deps.Portfolio.UpdatePrices).Methods("POST")
	p.HandleFunc("/summary", deps.Portfolio.Summary).Methods("GET")
	p.HandleFunc("/risk", deps.Portfolio.Risk).Methods("GET")
	p.HandleFunc("/behavior", deps.Portfolio.Behavior).Methods("GET")
	p.HandleFunc("/suggestions", deps.Portfolio.Suggestions).Methods("GET")
	p.HandleFunc("/simulate", deps.Portfolio.Simulate).Methods("POST")
	p.HandleFunc("/history", deps.Portfolio.History).Methods("GET")
	p.HandleFunc("/scores", deps.Portfolio.Scores).Methods("GET")
	p.HandleFunc("/stream", deps.Portfolio.Stream).Methods("GET")

	if deps.MetricsEnabled {
		r.Use(metrics.Middleware)
	}
	r.Use(loggingMiddleware(deps.Logger))
	r.Use(recoveryMiddleware(deps.Logger))

	return r
}
