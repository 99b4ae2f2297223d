// Package elo implements the outcome processor: pure Elo arithmetic over two
// ratings and a declared result. Nothing in here mutates competitor state;
// committing deltas is the caller's job.
package elo

import (
	"math"

	"github.com/okian/tatami/internal/domain/model"
)

const (
	// DefaultK is the engine-wide sensitivity constant. The continuous
	// formula already produces the small-gap/large-gap delta spread the
	// product describes, so there is no separate tiering table.
	DefaultK = 32

	// spread is the rating difference giving one side 10:1 expected odds.
	spread = 400
)

// Delta is the rating change for each side of a match.
type Delta struct {
	A float64
	B float64
}

// ExpectedScore returns the probability that a beats b, as a logistic
// function of the rating gap. ExpectedScore(a,b) + ExpectedScore(b,a) == 1.
func ExpectedScore(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/spread))
}

// Scores maps an outcome to the actual score per side: win 1, loss 0, draw 0.5.
func Scores(outcome model.Outcome) (scoreA, scoreB float64, err error) {
	switch outcome {
	case model.OutcomeAWin:
		return 1, 0, nil
	case model.OutcomeBWin:
		return 0, 1, nil
	case model.OutcomeDraw:
		return 0.5, 0.5, nil
	default:
		return 0, 0, &model.MatchError{Kind: model.ErrKindInvalidMatch, Reason: "malformed outcome: " + string(outcome)}
	}
}

// ApplyOutcome computes the unrounded rating delta for each side. Rounding
// is a presentation concern, not stored state.
func ApplyOutcome(ratingA, ratingB float64, outcome model.Outcome, k float64) (Delta, error) {
	scoreA, scoreB, err := Scores(outcome)
	if err != nil {
		return Delta{}, err
	}
	if k <= 0 {
		k = DefaultK
	}

	expectedA := ExpectedScore(ratingA, ratingB)
	expectedB := 1 - expectedA

	return Delta{
		A: k * (scoreA - expectedA),
		B: k * (scoreB - expectedB),
	}, nil
}
