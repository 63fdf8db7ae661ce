package handlers

import (
	"fmt"
	"net/http"

	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/portfolio"
	"github.com/wonny/risklens/pkg/logger"
)

// AnalyzeHandler scores a caller-supplied snapshot without storing it
type AnalyzeHandler struct {
	service *portfolio.Service
	logger  *logger.Logger
}

// NewAnalyzeHandler creates a new stateless analysis handler
func NewAnalyzeHandler(service *portfolio.Service, log *logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{service: service, logger: log.WithComponent("api")}
}

// AnalyzeRequest is a full portfolio snapshot
type AnalyzeRequest struct {
	Holdings []contracts.Holding      `json:"holdings"`
	History  []contracts.HistoryEntry `json:"history"`
}

// Analyze runs every engine on the request body
// POST /api/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondServiceError(w, h.logger, err, "analyze portfolio")
		return
	}

	analysis := h.service.Evaluate(req.Holdings, req.History)

	h.logger.WithFields(map[string]interface{}{
		"holdings":   len(req.Holdings),
		"history":    len(req.History),
		"risk_score": analysis.Risk.Breakdown.Composite,
	}).Debug("Stateless analysis")

	respondJSON(w, http.StatusOK, analysis)
}

// validate rejects history entries whose action is absent.
// Unknown sectors are accepted and scored with policy defaults.
func (req AnalyzeRequest) validate() error {
	for i, e := range req.History {
		if !e.Action.Valid() {
			return portfolio.ValidationError{
				Field:   fmt.Sprintf("history[%d].action", i),
				Message: "must be ADD or REMOVE",
			}
		}
	}
	return nil
}
