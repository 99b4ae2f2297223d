// Package ladder turns current ratings and the match log into ranked
// standings, scoped globally, per event, or per weight class.
package ladder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/tatami/internal/domain/model"
)

// ScopeKind selects which slice of the gym a ladder covers.
type ScopeKind string

const (
	ScopeGlobal      ScopeKind = "global"
	ScopeEvent       ScopeKind = "event"
	ScopeWeightClass ScopeKind = "weightClass"
)

// Scope is a parsed ladder scope.
type Scope struct {
	Kind        ScopeKind
	Event       string
	WeightClass string
}

// ParseScope parses "global", "event:<id>", or "weightClass:<name>".
func ParseScope(s string) (Scope, error) {
	switch {
	case s == "" || s == string(ScopeGlobal):
		return Scope{Kind: ScopeGlobal}, nil
	case strings.HasPrefix(s, string(ScopeEvent)+":"):
		id := strings.TrimPrefix(s, string(ScopeEvent)+":")
		if id == "" {
			return Scope{}, fmt.Errorf("%w: empty event id", ErrUnknownScope)
		}
		return Scope{Kind: ScopeEvent, Event: id}, nil
	case strings.HasPrefix(s, string(ScopeWeightClass)+":"):
		name := strings.TrimPrefix(s, string(ScopeWeightClass)+":")
		if _, ok := model.LookupWeightClass(name); !ok {
			return Scope{}, fmt.Errorf("%w: %q", ErrUnknownWeightClass, name)
		}
		return Scope{Kind: ScopeWeightClass, WeightClass: name}, nil
	default:
		return Scope{}, fmt.Errorf("%w: %q", ErrUnknownScope, s)
	}
}

// Strategy names the sort order. The product flip-flopped between ranking by
// gain and by absolute rating across views, so both are explicit and tested
// instead of hard-coded per view.
type Strategy string

const (
	// ByGain ranks by (current - start) so an improving low-rated
	// competitor can outrank a dormant high-rated one. The default.
	ByGain Strategy = "gain"
	// ByRating ranks by absolute current rating.
	ByRating Strategy = "rating"
)

// ParseStrategy parses a strategy name; empty means ByGain.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", ByGain:
		return ByGain, nil
	case ByRating:
		return ByRating, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Standing is one ladder row. Rating values stay unrounded; rounding is the
// serving layer's problem.
type Standing struct {
	Rank         int     `json:"rank"`
	CompetitorID string  `json:"competitor_id"`
	Name         string  `json:"name"`
	Belt         string  `json:"belt"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Draws        int     `json:"draws"`
	Rating       float64 `json:"rating"`
	StartRating  float64 `json:"start_rating"`
	Gain         float64 `json:"gain"`
}

// Build produces ranked standings. Tallies are computed from the filtered
// match set every time, never read from cached counters, so they cannot
// drift from the log.
func Build(scope Scope, strategy Strategy, competitors []model.Competitor, matches []model.Match) ([]Standing, error) {
	matchSet := matches
	if scope.Kind == ScopeEvent {
		matchSet = filterByEvent(matches, scope.Event)
	}

	tallies := tally(matchSet)

	var rows []Standing
	for _, c := range competitors {
		if !inScope(scope, c, tallies) {
			continue
		}
		t := tallies[c.ID]
		rows = append(rows, Standing{
			CompetitorID: c.ID,
			Name:         c.Name,
			Belt:         c.Belt.String(),
			Wins:         t.wins,
			Losses:       t.losses,
			Draws:        t.draws,
			Rating:       c.Rating.Current,
			StartRating:  c.Rating.Start,
			Gain:         c.Rating.Gain(),
		})
	}

	sortStandings(rows, strategy)
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

type record struct {
	wins, losses, draws int
}

// tally counts W/L/D per competitor across a match set. Malformed outcomes
// contribute nothing; they are the recalculation report's business.
func tally(matches []model.Match) map[string]record {
	out := make(map[string]record)
	for _, m := range matches {
		a, b := out[m.SideA], out[m.SideB]
		switch m.Outcome {
		case model.OutcomeAWin:
			a.wins++
			b.losses++
		case model.OutcomeBWin:
			a.losses++
			b.wins++
		case model.OutcomeDraw:
			a.draws++
			b.draws++
		default:
			continue
		}
		out[m.SideA], out[m.SideB] = a, b
	}
	return out
}

func filterByEvent(matches []model.Match, event string) []model.Match {
	var out []model.Match
	for _, m := range matches {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

// inScope applies the scope's membership rule. Global and event scopes need
// at least one match in the set; weight-class membership is purely a
// function of current weight.
func inScope(scope Scope, c model.Competitor, tallies map[string]record) bool {
	switch scope.Kind {
	case ScopeWeightClass:
		wc, ok := model.ClassOf(c.Weight)
		return ok && wc.Name == scope.WeightClass
	default:
		t, ok := tallies[c.ID]
		return ok && t.wins+t.losses+t.draws > 0
	}
}

// sortStandings orders rows under the strategy's strict total order; the id
// tie-break guarantees no two rows ever compare equal.
func sortStandings(rows []Standing, strategy Strategy) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch strategy {
		case ByRating:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			if a.Gain != b.Gain {
				return a.Gain > b.Gain
			}
		default:
			if a.Gain != b.Gain {
				return a.Gain > b.Gain
			}
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		}
		return a.CompetitorID < b.CompetitorID
	})
}
