package portfolio

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/risklens/internal/behavior"
	"github.com/wonny/risklens/internal/contracts"
	"github.com/wonny/risklens/internal/metrics"
	"github.com/wonny/risklens/internal/policy"
	"github.com/wonny/risklens/internal/risk"
	"github.com/wonny/risklens/internal/simulation"
	"github.com/wonny/risklens/pkg/logger"
)

// Update is published to the Notifier after every mutation
type Update struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	At       time.Time `json:"at"`
	Analysis Analysis  `json:"analysis"`
}

// Update types
const (
	UpdateHoldingAdded   = "holding_added"
	UpdateHoldingRemoved = "holding_removed"
	UpdatePricesChanged  = "prices_updated"
)

// Notifier receives fresh analyses after portfolio mutations
type Notifier interface {
	Publish(update Update)
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the service and engine clock
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithNotifier sets the mutation notifier
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithIDGenerator overrides uuid generation for holdings and history entries
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// Service is the stateful shell around the engines.
// It validates input, persists snapshots and feeds immutable copies to the engines.
type Service struct {
	store      Store
	policy     *policy.Policy
	policyHash string
	risk       *risk.Engine
	behavior   *behavior.Engine
	sim        *simulation.Engine
	now        func() time.Time
	newID      func() string
	notifier   Notifier
	logger     *logger.Logger

	locks sync.Map // userID -> *sync.Mutex
}

// NewService creates a portfolio service. A nil policy means policy.Default().
func NewService(store Store, p *policy.Policy, log *logger.Logger, opts ...Option) (*Service, error) {
	if p == nil {
		p = policy.Default()
	}
	hash, err := policy.Hash(p)
	if err != nil {
		return nil, fmt.Errorf("failed to hash policy: %w", err)
	}

	s := &Service{
		store:      store,
		policy:     p,
		policyHash: hash,
		now:        time.Now,
		newID:      uuid.NewString,
		logger:     log.WithComponent("portfolio"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.risk = risk.NewEngine(p, risk.WithClock(s.now))
	s.behavior = behavior.NewEngine(p, behavior.WithClock(s.now))
	s.sim = simulation.NewEngine(s.risk)
	return s, nil
}

// Policy returns the scoring policy in use
func (s *Service) Policy() *policy.Policy {
	return s.policy
}

// PolicyHash returns the hash recorded with every analysis
func (s *Service) PolicyHash() string {
	return s.policyHash
}

func (s *Service) lock(userID string) func() {
	m, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// AddHoldingInput is a new position. Sector may be empty when Industry is given.
type AddHoldingInput struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	BuyPrice     float64 `json:"buy_price"`
	CurrentPrice float64 `json:"current_price"`
	Sector       string  `json:"sector"`
	Industry     string  `json:"industry"`
	PERatio      float64 `json:"pe_ratio"`
	DebtEquity   float64 `json:"debt_equity"`
	ROE          float64 `json:"roe"`
	Beta         float64 `json:"beta"`
}

func validUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ValidationError{Field: "user_id", Message: "must not be empty"}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (in AddHoldingInput) toHolding() (contracts.Holding, error) {
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if symbol == "" {
		return contracts.Holding{}, ValidationError{Field: "symbol", Message: "must not be empty"}
	}
	if !finite(in.Quantity) || in.Quantity <= 0 {
		return contracts.Holding{}, ValidationError{Field: "quantity", Message: "must be greater than 0"}
	}
	if !finite(in.BuyPrice) || in.BuyPrice <= 0 {
		return contracts.Holding{}, ValidationError{Field: "buy_price", Message: "must be greater than 0"}
	}
	if !finite(in.CurrentPrice) || in.CurrentPrice < 0 {
		return contracts.Holding{}, ValidationError{Field: "current_price", Message: "must not be negative"}
	}
	if !finite(in.PERatio) || in.PERatio < 0 {
		return contracts.Holding{}, ValidationError{Field: "pe_ratio", Message: "must not be negative"}
	}
	if !finite(in.DebtEquity) || in.DebtEquity < 0 {
		return contracts.Holding{}, ValidationError{Field: "debt_equity", Message: "must not be negative"}
	}
	if !finite(in.ROE) {
		return contracts.Holding{}, ValidationError{Field: "roe", Message: "must be a finite number"}
	}
	if !finite(in.Beta) {
		return contracts.Holding{}, ValidationError{Field: "beta", Message: "must be a finite number"}
	}

	var sector contracts.Sector
	if strings.TrimSpace(in.Sector) == "" {
		sector = contracts.InferSector(in.Industry)
	} else {
		parsed, err := contracts.ParseSector(in.Sector)
		if err != nil {
			return contracts.Holding{}, ValidationError{Field: "sector", Message: err.Error()}
		}
		sector = parsed
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = symbol
	}
	current := in.CurrentPrice
	if current == 0 {
		current = in.BuyPrice
	}

	return contracts.Holding{
		Symbol:       symbol,
		Name:         name,
		Quantity:     in.Quantity,
		BuyPrice:     in.BuyPrice,
		CurrentPrice: current,
		Sector:       sector,
		PERatio:      in.PERatio,
		DebtEquity:   in.DebtEquity,
		ROE:          in.ROE,
		Beta:         in.Beta,
	}, nil
}

// AddHolding stores a new holding and logs an ADD at the buy price
func (s *Service) AddHolding(ctx context.Context, userID string, in AddHoldingInput) (contracts.Holding, error) {
	if err := validUserID(userID); err != nil {
		return contracts.Holding{}, err
	}
	h, err := in.toHolding()
	if err != nil {
		return contracts.Holding{}, err
	}

	unlock := s.lock(userID)
	defer unlock()

	now := s.now()
	h.ID = s.newID()
	h.AddedAt = now

	entry := contracts.HistoryEntry{
		ID:        s.newID(),
		Action:    contracts.ActionAdd,
		Symbol:    h.Symbol,
		Quantity:  h.Quantity,
		Price:     h.BuyPrice,
		Timestamp: now,
	}
	if err := s.store.AddHoldingWithEntry(ctx, userID, h, entry); err != nil {
		return contracts.Holding{}, fmt.Errorf("failed to save holding: %w", err)
	}

	metrics.MutationsTotal.WithLabelValues("add").Inc()
	s.logger.WithFields(map[string]interface{}{
		"user_id":    userID,
		"holding_id": h.ID,
		"symbol":     h.Symbol,
		"quantity":   h.Quantity,
	}).Info("Holding added")

	s.publish(ctx, UpdateHoldingAdded, userID)
	return h, nil
}

// RemoveHolding deletes a holding and logs a REMOVE at its current price
func (s *Service) RemoveHolding(ctx context.Context, userID, holdingID string) (contracts.HistoryEntry, error) {
	if err := validUserID(userID); err != nil {
		return contracts.HistoryEntry{}, err
	}

	unlock := s.lock(userID)
	defer unlock()

	h, err := s.store.GetHolding(ctx, userID, holdingID)
	if err != nil {
		return contracts.HistoryEntry{}, fmt.Errorf("failed to get holding %s: %w", holdingID, err)
	}
	entry := contracts.HistoryEntry{
		ID:        s.newID(),
		Action:    contracts.ActionRemove,
		Symbol:    h.Symbol,
		Quantity:  h.Quantity,
		Price:     h.CurrentPrice,
		Timestamp: s.now(),
	}
	if err := s.store.RemoveHoldingWithEntry(ctx, userID, holdingID, entry); err != nil {
		return contracts.HistoryEntry{}, fmt.Errorf("failed to remove holding %s: %w", holdingID, err)
	}

	metrics.MutationsTotal.WithLabelValues("remove").Inc()
	s.logger.WithFields(map[string]interface{}{
		"user_id":    userID,
		"holding_id": holdingID,
		"symbol":     h.Symbol,
	}).Info("Holding removed")

	s.publish(ctx, UpdateHoldingRemoved, userID)
	return entry, nil
}

// UpdatePrices sets current prices by symbol. Prices must be positive.
func (s *Service) UpdatePrices(ctx context.Context, userID string, prices map[string]float64) (int, error) {
	if err := validUserID(userID); err != nil {
		return 0, err
	}
	normalized := make(map[string]float64, len(prices))
	for symbol, price := range prices {
		if !finite(price) || price <= 0 {
			return 0, ValidationError{Field: "prices." + symbol, Message: "must be greater than 0"}
		}
		normalized[strings.ToUpper(strings.TrimSpace(symbol))] = price
	}
	if len(normalized) == 0 {
		return 0, nil
	}

	unlock := s.lock(userID)
	defer unlock()

	updated, err := s.store.UpdatePrices(ctx, userID, normalized)
	if err != nil {
		return 0, fmt.Errorf("failed to update prices: %w", err)
	}

	metrics.MutationsTotal.WithLabelValues("prices").Inc()
	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"symbols": len(normalized),
		"updated": updated,
	}).Debug("Prices updated")

	if updated > 0 {
		s.publish(ctx, UpdatePricesChanged, userID)
	}
	return updated, nil
}

// PortfolioSnapshot is a consistent copy of a user's holdings and full history
type PortfolioSnapshot struct {
	Holdings []contracts.Holding      `json:"holdings"`
	History  []contracts.HistoryEntry `json:"history"`
}

// Snapshot reads holdings and full history
func (s *Service) Snapshot(ctx context.Context, userID string) (PortfolioSnapshot, error) {
	if err := validUserID(userID); err != nil {
		return PortfolioSnapshot{}, err
	}
	holdings, err := s.store.ListHoldings(ctx, userID)
	if err != nil {
		return PortfolioSnapshot{}, fmt.Errorf("failed to list holdings: %w", err)
	}
	history, err := s.store.ListHistory(ctx, userID, time.Time{})
	if err != nil {
		return PortfolioSnapshot{}, fmt.Errorf("failed to list history: %w", err)
	}
	return PortfolioSnapshot{Holdings: holdings, History: history}, nil
}

// History returns entries at or after since (zero = all)
func (s *Service) History(ctx context.Context, userID string, since time.Time) ([]contracts.HistoryEntry, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}
	history, err := s.store.ListHistory(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return history, nil
}

// Summary builds the dashboard summary
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(snap.Holdings, snap.History, s.now()), nil
}

// Analyze runs every engine on the stored portfolio
func (s *Service) Analyze(ctx context.Context, userID string) (Analysis, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return Analysis{}, err
	}
	return s.Evaluate(snap.Holdings, snap.History), nil
}

// Risk computes the risk report only
func (s *Service) Risk(ctx context.Context, userID string) (RiskReport, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return RiskReport{}, err
	}
	return s.riskReport(snap.Holdings, snap.History), nil
}

// Behavior computes the behavior report only
func (s *Service) Behavior(ctx context.Context, userID string) (BehaviorReport, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return BehaviorReport{}, err
	}
	return s.behaviorReport(snap.Holdings, snap.History), nil
}

// Suggestions ranks rebalance suggestions for the stored portfolio
func (s *Service) Suggestions(ctx context.Context, userID string) ([]contracts.RebalanceSuggestion, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.rebalancing(snap.Holdings, snap.History), nil
}

// Adjustment sets the quantity of one holding. Quantity 0 removes it.
// The holding is matched by HoldingID, or by Symbol when HoldingID is empty.
type Adjustment struct {
	HoldingID string  `json:"holding_id"`
	Symbol    string  `json:"symbol"`
	Quantity  float64 `json:"quantity"`
}

// Simulate scores the stored portfolio with adjustments applied. Nothing is stored.
func (s *Service) Simulate(ctx context.Context, userID string, adjustments []Adjustment) (contracts.SimulationResult, error) {
	if len(adjustments) == 0 {
		return contracts.SimulationResult{}, ValidationError{Field: "adjustments", Message: "must not be empty"}
	}
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return contracts.SimulationResult{}, err
	}

	mutated, err := applyAdjustments(snap.Holdings, adjustments)
	if err != nil {
		return contracts.SimulationResult{}, err
	}

	metrics.AnalysesTotal.WithLabelValues("simulation").Inc()
	return s.sim.SimulateAdjustment(snap.Holdings, mutated, snap.History), nil
}

func applyAdjustments(holdings []contracts.Holding, adjustments []Adjustment) ([]contracts.Holding, error) {
	mutated := contracts.CloneHoldings(holdings)

	for i, adj := range adjustments {
		if !finite(adj.Quantity) || adj.Quantity < 0 {
			return nil, ValidationError{Field: fmt.Sprintf("adjustments[%d].quantity", i), Message: "must not be negative"}
		}
		symbol := strings.ToUpper(strings.TrimSpace(adj.Symbol))
		matched := false
		for j := range mutated {
			if (adj.HoldingID != "" && mutated[j].ID == adj.HoldingID) ||
				(adj.HoldingID == "" && symbol != "" && mutated[j].Symbol == symbol) {
				mutated[j].Quantity = adj.Quantity
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("adjustment %d: %w", i, ErrHoldingNotFound)
		}
	}

	active := mutated[:0]
	for _, h := range mutated {
		if h.Active() {
			active = append(active, h)
		}
	}
	return active, nil
}

// RecordScores persists the current risk and behavior composites.
// A user with neither holdings nor history returns ErrNotFound.
func (s *Service) RecordScores(ctx context.Context, userID string) (ScoreSnapshot, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return ScoreSnapshot{}, err
	}
	if len(snap.Holdings) == 0 && len(snap.History) == 0 {
		return ScoreSnapshot{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	r := s.riskReport(snap.Holdings, snap.History)
	b := s.behavior.AnalyzeBehavior(snap.Holdings, snap.History)

	score := ScoreSnapshot{
		UserID:        userID,
		TakenAt:       s.now().UTC(),
		RiskScore:     r.Breakdown.Composite,
		RiskLevel:     r.Breakdown.Level,
		BehaviorScore: b.Composite,
		BehaviorLevel: b.Level,
		TotalValue:    r.Stats.TotalValue,
		PolicyHash:    s.policyHash,
	}
	if err := s.store.SaveScoreSnapshot(ctx, score); err != nil {
		return ScoreSnapshot{}, fmt.Errorf("failed to save score snapshot: %w", err)
	}
	return score, nil
}

// Scores lists recorded snapshots, newest first
func (s *Service) Scores(ctx context.Context, userID string, limit int) ([]ScoreSnapshot, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}
	snaps, err := s.store.ListScoreSnapshots(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list score snapshots: %w", err)
	}
	return snaps, nil
}

// Users lists every user with stored data
func (s *Service) Users(ctx context.Context) ([]string, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// PruneHistory deletes history older than retention
func (s *Service) PruneHistory(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, ValidationError{Field: "retention", Message: "must be positive"}
	}
	cutoff := s.now().Add(-retention)
	pruned, err := s.store.PruneHistory(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return pruned, nil
}

func (s *Service) publish(ctx context.Context, kind, userID string) {
	if s.notifier == nil {
		return
	}
	analysis, err := s.Analyze(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Skipping update notification")
		return
	}
	s.notifier.Publish(Update{
		Type:     kind,
		UserID:   userID,
		At:       analysis.ComputedAt,
		Analysis: analysis,
	})
}
