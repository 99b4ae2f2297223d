// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/tatami/internal/domain/rating"
)

// Competitor represents a tracked grappler. Wins/Losses/Draws are derived
// from match history for display; the match log is the source of truth.
type Competitor struct {
	ID     string
	Name   string
	Belt   rating.Belt
	Weight *float64 // kilograms are the gym's problem; bounds are unitless here
	Rating rating.Rating
}

// Outcome is the declared result of a match, from side A's bookkeeping order.
type Outcome string

const (
	OutcomeAWin Outcome = "a_win"
	OutcomeBWin Outcome = "b_win"
	OutcomeDraw Outcome = "draw"
)

// Valid reports whether the outcome is one of the three known values.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeAWin, OutcomeBWin, OutcomeDraw:
		return true
	}
	return false
}

// ParseOutcome normalizes an outcome string. It accepts the canonical values
// only; anything else is a malformed outcome.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.Valid() {
		return "", &MatchError{Kind: ErrKindInvalidMatch, Reason: "malformed outcome: " + s}
	}
	return o, nil
}

// Match is one recorded bout. Side order carries no semantic weight beyond
// bookkeeping. Seq is assigned by storage at append time and breaks timestamp
// ties so replay order is a stable total order.
type Match struct {
	ID       string
	SideA    string
	SideB    string
	Outcome  Outcome
	TS       time.Time
	Seq      int64
	Event    string // optional event id; empty means unaffiliated
	Method   string // opaque pass-through metadata
	Duration time.Duration
}

// SnapshotEntry records a competitor's rating around a single match. The
// recalculation engine regenerates these wholesale.
type SnapshotEntry struct {
	MatchID      string
	CompetitorID string
	Before       float64
	After        float64
	Delta        float64
	TS           time.Time
}

// Error kinds surfaced to callers, per the propagation policy: structured
// kind + offending identifier + reason.
const (
	ErrKindInvalidMatch   = "invalid_match"
	ErrKindUnknownSide    = "unknown_competitor"
	ErrKindSelfPlay       = "self_play"
	ErrKindDegenerateOdds = "degenerate_odds"
)

// MatchError is a structured, serializable description of a rejected match.
type MatchError struct {
	Kind    string `json:"kind"`
	MatchID string `json:"match_id,omitempty"`
	Reason  string `json:"reason"`
}

func (e *MatchError) Error() string {
	if e.MatchID == "" {
		return e.Kind + ": " + e.Reason
	}
	return e.Kind + ": match " + e.MatchID + ": " + e.Reason
}
