// Package recalc replays the full match history from reset ratings. It is
// the recovery and audit path; the normal path applies one outcome at a
// time as matches are recorded.
package recalc

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/tatami/internal/domain/elo"
	"github.com/okian/tatami/internal/domain/model"
	"github.com/okian/tatami/internal/domain/rating"
)

// Recalculator performs deterministic full replays.
type Recalculator struct {
	k float64
}

// Option applies a configuration option to the Recalculator.
type Option func(*Recalculator)

// WithKFactor overrides the engine-wide sensitivity constant.
func WithKFactor(k float64) Option {
	return func(r *Recalculator) {
		if k > 0 {
			r.k = k
		}
	}
}

// New constructs a Recalculator with default configuration.
func New(opts ...Option) *Recalculator {
	r := &Recalculator{k: elo.DefaultK}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report lists what a replay could and could not apply. Skips are collected
// and returned once at the end of the run, never raised per record.
type Report struct {
	Applied int                `json:"applied"`
	Skipped []model.MatchError `json:"skipped,omitempty"`
}

// Result is a fully recalculated rating set plus the regenerated snapshot
// history. Nothing is persisted here; committing is the caller's explicit
// write step.
type Result struct {
	Ratings   map[string]rating.Rating
	Snapshots []model.SnapshotEntry
	Report    Report
}

// Run replays matches in (timestamp, sequence) order against ratings reset
// to their starting points. Each committed delta is visible to every later
// match, so the replay is order-sensitive by design and bit-identical across
// runs on the same history.
func (rc *Recalculator) Run(ctx context.Context, competitors []model.Competitor, matches []model.Match) (Result, error) {
	ratings := make(map[string]rating.Rating, len(competitors))
	for _, c := range competitors {
		r := c.Rating
		if r.Start == 0 {
			// Unrated competitor: belt-derived start, never a failure.
			r = rating.NewFromBelt(c.Belt)
		}
		ratings[c.ID] = r.Reset()
	}

	ordered := make([]model.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].TS.Equal(ordered[j].TS) {
			return ordered[i].TS.Before(ordered[j].TS)
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	res := Result{Ratings: ratings}

	for _, m := range ordered {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("replay interrupted: %w", err)
		}

		if skip := validate(ratings, m); skip != nil {
			res.Report.Skipped = append(res.Report.Skipped, *skip)
			continue
		}

		ra := ratings[m.SideA]
		rb := ratings[m.SideB]
		delta, err := elo.ApplyOutcome(ra.Current, rb.Current, m.Outcome, rc.k)
		if err != nil {
			res.Report.Skipped = append(res.Report.Skipped, model.MatchError{
				Kind: model.ErrKindInvalidMatch, MatchID: m.ID, Reason: err.Error(),
			})
			continue
		}

		ratings[m.SideA] = ra.Applied(delta.A)
		ratings[m.SideB] = rb.Applied(delta.B)

		res.Snapshots = append(res.Snapshots,
			model.SnapshotEntry{MatchID: m.ID, CompetitorID: m.SideA, Before: ra.Current, After: ra.Current + delta.A, Delta: delta.A, TS: m.TS},
			model.SnapshotEntry{MatchID: m.ID, CompetitorID: m.SideB, Before: rb.Current, After: rb.Current + delta.B, Delta: delta.B, TS: m.TS},
		)
		res.Report.Applied++
	}

	return res, nil
}

// validate returns the skip reason for a bad record, or nil.
func validate(ratings map[string]rating.Rating, m model.Match) *model.MatchError {
	if m.SideA == m.SideB {
		return &model.MatchError{Kind: model.ErrKindSelfPlay, MatchID: m.ID, Reason: "competitor cannot face themselves"}
	}
	if _, ok := ratings[m.SideA]; !ok {
		return &model.MatchError{Kind: model.ErrKindUnknownSide, MatchID: m.ID, Reason: "unknown competitor: " + m.SideA}
	}
	if _, ok := ratings[m.SideB]; !ok {
		return &model.MatchError{Kind: model.ErrKindUnknownSide, MatchID: m.ID, Reason: "unknown competitor: " + m.SideB}
	}
	if !m.Outcome.Valid() {
		return &model.MatchError{Kind: model.ErrKindInvalidMatch, MatchID: m.ID, Reason: "malformed outcome: " + string(m.Outcome)}
	}
	return nil
}
