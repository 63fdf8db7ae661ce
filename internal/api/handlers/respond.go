package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/risklens/internal/portfolio"
	"github.com/wonny/risklens/pkg/logger"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps portfolio errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, log *logger.Logger, err error, action string) {
	var ve portfolio.ValidationError
	switch {
	case errors.As(err, &ve):
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": ve.Error(),
			"field": ve.Field,
		})
	case errors.Is(err, portfolio.ErrHoldingNotFound):
		respondError(w, http.StatusNotFound, "Holding not found")
	case errors.Is(err, portfolio.ErrNotFound):
		respondError(w, http.StatusNotFound, "Portfolio not found")
	default:
		log.WithError(err).Error("Failed to " + action)
		respondError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

// decodeJSON reads a bounded body and rejects unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// queryInt parses an optional non-negative integer query parameter
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid '%s' (expected a non-negative integer)", name)
	}
	return v, nil
}

// querySince reads ?since=RFC3339 or ?days=N. Neither means no lower bound.
func querySince(r *http.Request, now time.Time) (time.Time, error) {
	q := r.URL.Query()
	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid 'since' (expected RFC3339)")
		}
		return t, nil
	}
	days, err := queryInt(r, "days", 0)
	if err != nil {
		return time.Time{}, err
	}
	if days == 0 {
		return time.Time{}, nil
	}
	return now.AddDate(0, 0, -days), nil
}
