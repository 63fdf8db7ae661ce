package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/risklens/internal/api/stream"
	"github.com/wonny/risklens/internal/portfolio"
	"github.com/wonny/risklens/pkg/logger"
)

const defaultScoreLimit = 30

// PortfolioHandler serves the per-user portfolio endpoints
type PortfolioHandler struct {
	service *portfolio.Service
	hub     *stream.Hub
	logger  *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler. hub may be nil when streaming is off.
func NewPortfolioHandler(service *portfolio.Service, hub *stream.Hub, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		service: service,
		hub:     hub,
		logger:  log.WithComponent("api"),
	}
}

func userID(r *http.Request) string {
	return mux.Vars(r)["userID"]
}

// ListHoldings returns the user's holdings
// GET /api/portfolios/{userID}/holdings
func (h *PortfolioHandler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "list holdings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": snap.Holdings,
		"count":    len(snap.Holdings),
	})
}

// AddHolding adds a holding
// POST /api/portfolios/{userID}/holdings
func (h *PortfolioHandler) AddHolding(w http.ResponseWriter, r *http.Request) {
	var req portfolio.AddHoldingInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	holding, err := h.service.AddHolding(r.Context(), userID(r), req)
	if err != nil {
		respondServiceError(w, h.logger, err, "add holding")
		return
	}
	respondJSON(w, http.StatusCreated, holding)
}

// RemoveHolding removes a holding and returns the REMOVE entry
// DELETE /api/portfolios/{userID}/holdings/{holdingID}
func (h *PortfolioHandler) RemoveHolding(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.RemoveHolding(r.Context(), userID(r), mux.Vars(r)["holdingID"])
	if err != nil {
		respondServiceError(w, h.logger, err, "remove holding")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// UpdatePricesRequest maps symbols to current prices
type UpdatePricesRequest struct {
	Prices map[string]float64 `json:"prices"`
}

// UpdatePrices sets current prices
// POST /api/portfolios/{userID}/prices
func (h *PortfolioHandler) UpdatePrices(w http.ResponseWriter, r *http.Request) {
	var req UpdatePricesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.UpdatePrices(r.Context(), userID(r), req.Prices)
	if err != nil {
		respondServiceError(w, h.logger, err, "update prices")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// Summary returns totals, sector distribution and activity
// GET /api/portfolios/{userID}/summary
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "build summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Risk returns the risk report
// GET /api/portfolios/{userID}/risk
func (h *PortfolioHandler) Risk(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Risk(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "compute risk")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Behavior returns the behavior report
// GET /api/portfolios/{userID}/behavior
func (h *PortfolioHandler) Behavior(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Behavior(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "analyze behavior")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Suggestions returns at most three ranked rebalance suggestions
// GET /api/portfolios/{userID}/suggestions
func (h *PortfolioHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.service.Suggestions(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "generate suggestions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// SimulateRequest lists quantity changes to try
type SimulateRequest struct {
	Adjustments []portfolio.Adjustment `json:"adjustments"`
}

// Simulate scores a what-if portfolio
// POST /api/portfolios/{userID}/simulate
func (h *PortfolioHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Simulate(r.Context(), userID(r), req.Adjustments)
	if err != nil {
		respondServiceError(w, h.logger, err, "simulate adjustment")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// History returns the transaction log
// GET /api/portfolios/{userID}/history?since=RFC3339|days=N
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	since, err := querySince(r, time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	history, err := h.service.History(r.Context(), userID(r), since)
	if err != nil {
		respondServiceError(w, h.logger, err, "list history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"history": history,
		"count":   len(history),
	})
}

// Scores returns recorded score snapshots, newest first
// GET /api/portfolios/{userID}/scores?limit=N
func (h *PortfolioHandler) Scores(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultScoreLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	scores, err := h.service.Scores(r.Context(), userID(r), limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "list scores")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scores": scores,
		"count":  len(scores),
	})
}

// Stream upgrades to a WebSocket that receives a fresh analysis after every mutation
// GET /api/portfolios/{userID}/stream
func (h *PortfolioHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "Streaming is disabled")
		return
	}

	user := userID(r)
	analysis, err := h.service.Analyze(r.Context(), user)
	if err != nil {
		respondServiceError(w, h.logger, err, "analyze portfolio")
		return
	}
	initial := &portfolio.Update{
		Type:     "snapshot",
		UserID:   user,
		At:       analysis.ComputedAt,
		Analysis: analysis,
	}

	if err := h.hub.Serve(w, r, user, initial); err != nil {
		// the upgrader has already written the error response
		h.logger.WithError(err).WithField("user_id", user).Warn("WebSocket upgrade failed")
	}
}
