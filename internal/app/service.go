// Package service provides the core business service that implements the
// dependencies required by the HTTP API: competitor registration, the
// incremental rating path, full recalculation, ladders, and odds previews.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tatami/internal/adapters/repository"
	"github.com/okian/tatami/internal/domain/dedupe"
	"github.com/okian/tatami/internal/domain/elo"
	"github.com/okian/tatami/internal/domain/model"
	"github.com/okian/tatami/internal/domain/odds"
	"github.com/okian/tatami/internal/domain/rating"
	"github.com/okian/tatami/internal/engine/ladder"
	"github.com/okian/tatami/internal/engine/recalc"
	"github.com/okian/tatami/pkg/logger"
	"github.com/okian/tatami/pkg/metrics"
)

// Service implements the engine operations over a storage backend.
type Service struct {
	mu sync.RWMutex

	// Core components
	store        repository.Store
	deduper      dedupe.Deduper
	recalculator *recalc.Recalculator

	// Configuration
	k          float64
	dedupeSize int

	// recalcMu makes full recalculation exclusive with incremental updates:
	// RecordMatch holds the read side, RecalculateAll the write side.
	// applyMu serializes rating writes so two matches touching the same
	// competitor can't race on the current value.
	recalcMu sync.RWMutex
	applyMu  sync.Mutex

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the storage backend. Defaults to the in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithKFactor sets the engine-wide Elo sensitivity constant.
func WithKFactor(k float64) Option {
	return func(s *Service) {
		if k > 0 {
			s.k = k
		}
	}
}

// WithDedupeSize sets the size of the duplicate-match cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		k:          elo.DefaultK,
		dedupeSize: 50_000,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.recalculator = recalc.New(recalc.WithKFactor(s.k))

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Float64("kFactor", s.k),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "rating service stopped")
}

// NewCompetitor is the plain-data request for competitor registration.
type NewCompetitor struct {
	Name   string
	Belt   string
	Weight *float64
}

// AddCompetitor registers a competitor, fixing the starting rating from the
// belt at creation time.
func (s *Service) AddCompetitor(ctx context.Context, req NewCompetitor) (model.Competitor, error) {
	belt, err := rating.ParseBelt(req.Belt)
	if err != nil {
		return model.Competitor{}, err
	}

	c := model.Competitor{
		ID:     uuid.NewString(),
		Name:   req.Name,
		Belt:   belt,
		Weight: req.Weight,
		Rating: rating.NewFromBelt(belt),
	}
	if err := s.store.PutCompetitor(ctx, c); err != nil {
		return model.Competitor{}, fmt.Errorf("register competitor: %w", err)
	}

	metrics.UpdateTotalCompetitors(s.store.CountCompetitors(ctx))
	s.logger.Info(ctx, "competitor registered",
		logger.String("id", c.ID),
		logger.String("belt", belt.String()),
		logger.Float64("startRating", c.Rating.Start),
	)
	return c, nil
}

// GetCompetitor returns a competitor by id.
func (s *Service) GetCompetitor(ctx context.Context, id string) (model.Competitor, error) {
	return s.store.GetCompetitor(ctx, id)
}

// MatchRequest is the plain-data request for recording one bout.
type MatchRequest struct {
	ID       string // optional; assigned when empty
	SideA    string
	SideB    string
	Outcome  string
	TS       time.Time // optional; defaults to now
	Event    string
	Method   string
	Duration time.Duration
}

// MatchResult reports what a recorded match did to both ratings.
type MatchResult struct {
	Match     model.Match
	DeltaA    float64
	DeltaB    float64
	NewA      float64
	NewB      float64
	Duplicate bool
}

// RecordMatch is the normal incremental path: validate, apply one Elo
// update, and persist the match, the ratings, and the snapshot entries.
func (s *Service) RecordMatch(ctx context.Context, req MatchRequest) (MatchResult, error) {
	outcome, err := model.ParseOutcome(req.Outcome)
	if err != nil {
		metrics.RecordMatchRejected()
		return MatchResult{}, err
	}
	if req.SideA == "" || req.SideB == "" {
		metrics.RecordMatchRejected()
		return MatchResult{}, &model.MatchError{Kind: model.ErrKindInvalidMatch, MatchID: req.ID, Reason: "both sides are required"}
	}
	if req.SideA == req.SideB {
		metrics.RecordMatchRejected()
		return MatchResult{}, &model.MatchError{Kind: model.ErrKindSelfPlay, MatchID: req.ID, Reason: "competitor cannot face themselves"}
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	if s.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordMatchDuplicate()
		return MatchResult{Match: model.Match{ID: id}, Duplicate: true}, nil
	}

	// Exclusive with full recalculation; serialized against other writes.
	s.recalcMu.RLock()
	defer s.recalcMu.RUnlock()
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	a, err := s.store.GetCompetitor(ctx, req.SideA)
	if err != nil {
		s.deduper.Unrecord(ctx, id)
		metrics.RecordMatchRejected()
		return MatchResult{}, &model.MatchError{Kind: model.ErrKindUnknownSide, MatchID: id, Reason: "unknown competitor: " + req.SideA}
	}
	b, err := s.store.GetCompetitor(ctx, req.SideB)
	if err != nil {
		s.deduper.Unrecord(ctx, id)
		metrics.RecordMatchRejected()
		return MatchResult{}, &model.MatchError{Kind: model.ErrKindUnknownSide, MatchID: id, Reason: "unknown competitor: " + req.SideB}
	}

	ra := ratingOrStart(a)
	rb := ratingOrStart(b)

	delta, err := elo.ApplyOutcome(ra.Current, rb.Current, outcome, s.k)
	if err != nil {
		s.deduper.Unrecord(ctx, id)
		metrics.RecordMatchRejected()
		return MatchResult{}, err
	}

	ts := req.TS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	m, err := s.store.AppendMatch(ctx, model.Match{
		ID:       id,
		SideA:    req.SideA,
		SideB:    req.SideB,
		Outcome:  outcome,
		TS:       ts,
		Event:    req.Event,
		Method:   req.Method,
		Duration: req.Duration,
	})
	if err != nil {
		s.deduper.Unrecord(ctx, id)
		if errors.Is(err, repository.ErrDuplicateID) {
			metrics.RecordMatchDuplicate()
			return MatchResult{Match: model.Match{ID: id}, Duplicate: true}, nil
		}
		return MatchResult{}, fmt.Errorf("append match: %w", err)
	}

	newA := ra.Applied(delta.A)
	newB := rb.Applied(delta.B)
	if err := s.store.UpdateRating(ctx, a.ID, newA); err != nil {
		return MatchResult{}, fmt.Errorf("commit rating: %w", err)
	}
	if err := s.store.UpdateRating(ctx, b.ID, newB); err != nil {
		return MatchResult{}, fmt.Errorf("commit rating: %w", err)
	}
	if err := s.store.AppendSnapshots(ctx,
		model.SnapshotEntry{MatchID: m.ID, CompetitorID: a.ID, Before: ra.Current, After: newA.Current, Delta: delta.A, TS: ts},
		model.SnapshotEntry{MatchID: m.ID, CompetitorID: b.ID, Before: rb.Current, After: newB.Current, Delta: delta.B, TS: ts},
	); err != nil {
		return MatchResult{}, fmt.Errorf("append snapshots: %w", err)
	}

	metrics.RecordMatchRecorded()
	metrics.RecordRatingDelta(delta.A)
	metrics.RecordRatingDelta(delta.B)
	metrics.UpdateTotalMatches(s.store.CountMatches(ctx))

	s.logger.Info(ctx, "match recorded",
		logger.String("matchID", m.ID),
		logger.String("outcome", string(outcome)),
		logger.Float64("deltaA", delta.A),
		logger.Float64("deltaB", delta.B),
	)

	return MatchResult{
		Match:  m,
		DeltaA: delta.A,
		DeltaB: delta.B,
		NewA:   newA.Current,
		NewB:   newB.Current,
	}, nil
}

// ratingOrStart substitutes the belt-derived starting rating for a
// competitor stored without one. A missing rating never fails an update.
func ratingOrStart(c model.Competitor) rating.Rating {
	if c.Rating.Start == 0 && c.Rating.Current == 0 {
		return rating.NewFromBelt(c.Belt)
	}
	return c.Rating
}

// RecalculateAll replays the entire history from reset ratings and installs
// the result atomically. Operator-triggered; returns ErrRecalculationRunning
// instead of queueing a second replay behind a first.
func (s *Service) RecalculateAll(ctx context.Context) (recalc.Report, error) {
	if !s.recalcMu.TryLock() {
		return recalc.Report{}, ErrRecalculationRunning
	}
	defer s.recalcMu.Unlock()

	start := time.Now()

	competitors, err := s.store.ListCompetitors(ctx)
	if err != nil {
		return recalc.Report{}, fmt.Errorf("list competitors: %w", err)
	}
	matches, err := s.store.ListMatches(ctx)
	if err != nil {
		return recalc.Report{}, fmt.Errorf("list matches: %w", err)
	}

	res, err := s.recalculator.Run(ctx, competitors, matches)
	if err != nil {
		metrics.RecordErrorByComponent("recalc", "replay_failed")
		return recalc.Report{}, err
	}

	if err := s.store.CommitRatings(ctx, res.Ratings, res.Snapshots); err != nil {
		metrics.RecordErrorByComponent("recalc", "commit_failed")
		return recalc.Report{}, fmt.Errorf("commit recalculated ratings: %w", err)
	}

	elapsed := time.Since(start)
	metrics.RecordRecalculation(float64(elapsed.Milliseconds()), len(res.Report.Skipped))
	metrics.UpdateRecalculationLastUnix(float64(time.Now().Unix()))

	s.logger.Info(ctx, "recalculation complete",
		logger.Int("applied", res.Report.Applied),
		logger.Int("skipped", len(res.Report.Skipped)),
		logger.Int64("durationMs", elapsed.Milliseconds()),
	)
	return res.Report, nil
}

// Ladder builds ranked standings for a scope and strategy, both given as
// plain strings from the serving layer.
func (s *Service) Ladder(ctx context.Context, scopeStr, strategyStr string) ([]ladder.Standing, error) {
	scope, err := ladder.ParseScope(scopeStr)
	if err != nil {
		return nil, err
	}
	strategy, err := ladder.ParseStrategy(strategyStr)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	competitors, err := s.store.ListCompetitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	matches, err := s.store.ListMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	rows, err := ladder.Build(scope, strategy, competitors, matches)
	if err != nil {
		return nil, err
	}

	metrics.RecordLadderQuery(string(scope.Kind))
	metrics.RecordLadderBuildLatency(float64(time.Since(start).Milliseconds()))
	return rows, nil
}

// PreviewOdds computes expected scores, American prices, and the outcome
// grid for two registered competitors. Read-only.
func (s *Service) PreviewOdds(ctx context.Context, aID, bID string) (odds.Preview, error) {
	if aID == bID {
		return odds.Preview{}, &model.MatchError{Kind: model.ErrKindSelfPlay, Reason: "competitor cannot face themselves"}
	}

	a, err := s.store.GetCompetitor(ctx, aID)
	if err != nil {
		return odds.Preview{}, &model.MatchError{Kind: model.ErrKindUnknownSide, Reason: "unknown competitor: " + aID}
	}
	b, err := s.store.GetCompetitor(ctx, bID)
	if err != nil {
		return odds.Preview{}, &model.MatchError{Kind: model.ErrKindUnknownSide, Reason: "unknown competitor: " + bID}
	}

	p := odds.PreviewMatch(ratingOrStart(a).Current, ratingOrStart(b).Current, s.k)

	metrics.RecordOddsPreview()
	if p.Degenerate() {
		metrics.RecordOddsDegenerate()
	}
	return p, nil
}

// PreviewOddsRatings computes a preview for two raw rating values, for
// hypothetical matchups between competitors not in the pool.
func (s *Service) PreviewOddsRatings(ctx context.Context, ratingA, ratingB float64) odds.Preview {
	p := odds.PreviewMatch(ratingA, ratingB, s.k)

	metrics.RecordOddsPreview()
	if p.Degenerate() {
		metrics.RecordOddsDegenerate()
	}
	return p
}

// ListMatches returns the recorded match log in replay order.
func (s *Service) ListMatches(ctx context.Context) ([]model.Match, error) {
	return s.store.ListMatches(ctx)
}

// History returns a competitor's rating snapshots in replay order.
func (s *Service) History(ctx context.Context, id string) ([]model.SnapshotEntry, error) {
	if _, err := s.store.GetCompetitor(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListSnapshots(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started": s.started,
		"kFactor": s.k,
	}

	if s.started {
		competitors := s.store.CountCompetitors(ctx)
		matches := s.store.CountMatches(ctx)
		stats["totalCompetitors"] = competitors
		stats["totalMatches"] = matches
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateTotalCompetitors(competitors)
		metrics.UpdateTotalMatches(matches)
	}

	return stats
}
