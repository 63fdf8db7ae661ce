package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/wonny/risklens/internal/api/handlers"
	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/portfolio"
	"github.com/wonny/risklens/pkg/config"
	"github.com/wonny/risklens/pkg/logger"
	"github.com/wonny/risklens/pkg/redis"
)

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type testAPI struct {
	handler http.Handler
	service *portfolio.Service
}

func newTestAPI(t *testing.T, edit func(*RouterDeps)) testAPI {
	t.Helper()
	log := logger.Nop()

	svc, err := portfolio.NewService(portfolio.NewMemoryStore(), nil, log,
		portfolio.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	client, err := redis.New(&config.Config{})
	require.NoError(t, err)

	deps := RouterDeps{
		Portfolio: handlers.NewPortfolioHandler(svc, nil, log),
		Analyze:   handlers.NewAnalyzeHandler(svc, log),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"redis": client.Ping,
		}),
		WriteLimiter:    redis.NewRateLimiter(client, "test"),
		WritesPerMinute: 5,
		MetricsEnabled:  true,
		Logger:          log,
	}
	if edit != nil {
		edit(&deps)
	}
	return testAPI{handler: NewRouter(deps), service: svc}
}

func (a testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func tcsInput() portfolio.AddHoldingInput {
	return portfolio.AddHoldingInput{
		Symbol: "TCS", Quantity: 10, BuyPrice: 100, Sector: "IT", PERatio: 20, DebtEquity: 0.5,
	}
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t, nil)

	rec := a.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthDegraded(t *testing.T) {
	a := newTestAPI(t, func(d *RouterDeps) {
		d.Health = handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"database": func(context.Context) error { return errors.New("connection refused") },
		})
	})

	rec := a.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPortfolioLifecycle(t *testing.T) {
	a := newTestAPI(t, nil)

	rec := a.do(t, http.MethodPost, "/api/portfolios/u1/holdings", tcsInput())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var holding contracts.Holding
	decodeBody(t, rec, &holding)
	assert.Equal(t, "TCS", holding.Symbol)

	rec = a.do(t, http.MethodGet, "/api/portfolios/u1/holdings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Holdings []contracts.Holding `json:"holdings"`
		Count    int                 `json:"count"`
	}
	decodeBody(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	rec = a.do(t, http.MethodGet, "/api/portfolios/u1/risk", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var riskReport portfolio.RiskReport
	decodeBody(t, rec, &riskReport)
	assert.Equal(t, 6.5, riskReport.Breakdown.Composite)
	assert.Equal(t, contracts.LevelHigh, riskReport.Breakdown.Level)

	rec = a.do(t, http.MethodGet, "/api/portfolios/u1/behavior", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var behaviorReport portfolio.BehaviorReport
	decodeBody(t, rec, &behaviorReport)
	assert.Equal(t, 3.0, behaviorReport.Breakdown.Composite)

	rec = a.do(t, http.MethodGet, "/api/portfolios/u1/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary portfolio.Summary
	decodeBody(t, rec, &summary)
	assert.Equal(t, 1000.0, summary.TotalCurrent)
	assert.Equal(t, 1, summary.Activity.TotalTransactions)

	rec = a.do(t, http.MethodGet, "/api/portfolios/u1/suggestions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/portfolios/u1/prices", handlers.UpdatePricesRequest{
		Prices: map[string]float64{"TCS": 110},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":1}`, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/portfolios/u1/simulate", handlers.SimulateRequest{
		Adjustments: []portfolio.Adjustment{{HoldingID: holding.ID, Quantity: 5}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var sim contracts.SimulationResult
	decodeBody(t, rec, &sim)
	assert.Equal(t, 6.5, sim.NewScore)

	rec = a.do(t, http.MethodDelete, "/api/portfolios/u1/holdings/"+holding.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entry contracts.HistoryEntry
	decodeBody(t, rec, &entry)
	assert.Equal(t, contracts.ActionRemove, entry.Action)
	assert.Equal(t, 110.0, entry.Price)

	rec = a.do(t, http.MethodGet, "/api/portfolios/u1/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &history)
	assert.Equal(t, 2, history.Count)
}

func TestPortfolioErrors(t *testing.T) {
	a := newTestAPI(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"validation error", http.MethodPost, "/api/portfolios/u1/holdings", portfolio.AddHoldingInput{Symbol: "X"}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/portfolios/u1/holdings", map[string]interface{}{"symbol": "X", "qty": 1}, http.StatusBadRequest},
		{"missing holding", http.MethodDelete, "/api/portfolios/u1/holdings/nope", nil, http.StatusNotFound},
		{"bad limit", http.MethodGet, "/api/portfolios/u1/scores?limit=-1", nil, http.StatusBadRequest},
		{"bad since", http.MethodGet, "/api/portfolios/u1/history?since=yesterday", nil, http.StatusBadRequest},
		{"empty simulation", http.MethodPost, "/api/portfolios/u1/simulate", handlers.SimulateRequest{}, http.StatusBadRequest},
		{"wrong method", http.MethodPut, "/api/portfolios/u1/holdings", nil, http.StatusMethodNotAllowed},
		{"stream disabled", http.MethodGet, "/api/portfolios/u1/stream", nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestValidationErrorNamesField(t *testing.T) {
	a := newTestAPI(t, nil)

	in := tcsInput()
	in.Quantity = 0
	rec := a.do(t, http.MethodPost, "/api/portfolios/u1/holdings", in)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "quantity", body["field"])
}

func TestScoresAfterRecord(t *testing.T) {
	a := newTestAPI(t, nil)
	ctx := context.Background()

	_, err := a.service.AddHolding(ctx, "u1", tcsInput())
	require.NoError(t, err)
	_, err = a.service.RecordScores(ctx, "u1")
	require.NoError(t, err)

	rec := a.do(t, http.MethodGet, "/api/portfolios/u1/scores?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Scores []portfolio.ScoreSnapshot `json:"scores"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Scores, 1)
	assert.Equal(t, 6.5, body.Scores[0].RiskScore)
}

func TestStatelessAnalyze(t *testing.T) {
	a := newTestAPI(t, nil)

	body := map[string]interface{}{
		"holdings": []map[string]interface{}{{
			"id": "h1", "symbol": "TCS", "quantity": 10, "buy_price": 100, "current_price": 100,
			"sector": "it", "pe_ratio": 20, "debt_equity": 0.5,
		}},
		"history": []map[string]interface{}{},
	}
	rec := a.do(t, http.MethodPost, "/api/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var analysis portfolio.Analysis
	decodeBody(t, rec, &analysis)
	assert.Equal(t, 6.5, analysis.Risk.Breakdown.Composite)
	assert.Equal(t, []contracts.Score{10, 10, 3, 3, 3}, analysis.Risk.Breakdown.Scores())

	bad := map[string]interface{}{
		"history": []map[string]interface{}{{"action": "HOLD", "symbol": "TCS"}},
	}
	rec = a.do(t, http.MethodPost, "/api/analyze", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown actions are rejected")
}

func TestStatelessAnalyzeRejectsInvalidHistory(t *testing.T) {
	a := newTestAPI(t, nil)

	tests := []struct {
		name    string
		history []map[string]interface{}
		field   string
	}{
		{
			name:    "missing action",
			history: []map[string]interface{}{{"symbol": "TCS"}},
			field:   "history[0].action",
		},
		{
			name: "missing action after a valid entry",
			history: []map[string]interface{}{
				{"action": "ADD", "symbol": "TCS"},
				{"symbol": "INFY"},
			},
			field: "history[1].action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/api/analyze", map[string]interface{}{"history": tt.history})
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var body map[string]string
			decodeBody(t, rec, &body)
			assert.Equal(t, tt.field, body["field"])
		})
	}
}

func TestGlobalRateLimit(t *testing.T) {
	a := newTestAPI(t, func(d *RouterDeps) {
		d.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	})

	first := a.do(t, http.MethodGet, "/api/portfolios/u1/holdings", nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := a.do(t, http.MethodGet, "/api/portfolios/u1/holdings", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	health := a.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, health.Code, "health is outside the limited prefix")
}

func TestWriteLimiterPassesWhenRedisDisabled(t *testing.T) {
	a := newTestAPI(t, nil)

	for i := 0; i < 7; i++ {
		rec := a.do(t, http.MethodPost, "/api/portfolios/u1/prices", handlers.UpdatePricesRequest{})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t, nil)
	a.do(t, http.MethodGet, "/health", nil)

	rec := a.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "risklens_http_requests_total")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
