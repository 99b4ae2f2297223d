// Package odds converts rating differentials into win probabilities and
// betting-style prices. Strictly a read-only preview path.
package odds

import (
	"math"
	"strconv"

	"github.com/okian/tatami/internal/domain/elo"
	"github.com/okian/tatami/internal/domain/model"
)

const evenMoney = 0.5

// American is a betting-style price. Negative means favorite, positive means
// underdog. A probability of exactly 0 or 1 has no finite price; that is the
// Infinite sentinel, never a division by zero.
type American struct {
	Value    int  `json:"value"`
	Infinite bool `json:"infinite"`
	Favorite bool `json:"favorite"`
}

// FromProbability converts a win probability into an American price.
func FromProbability(p float64) American {
	switch {
	case p >= 1:
		return American{Infinite: true, Favorite: true}
	case p <= 0:
		return American{Infinite: true, Favorite: false}
	case p >= evenMoney:
		return American{Value: int(math.Round(-100 * p / (1 - p))), Favorite: true}
	default:
		return American{Value: int(math.Round(100 * (1 - p) / p)), Favorite: false}
	}
}

// Probability inverts the price back to a win probability. Infinite prices
// collapse to the boundary they encode.
func (a American) Probability() float64 {
	if a.Infinite {
		if a.Favorite {
			return 1
		}
		return 0
	}
	v := float64(a.Value)
	if v < 0 {
		return -v / (-v + 100)
	}
	return 100 / (v + 100)
}

// String renders the price the way a book would print it: favorites keep the
// minus sign, underdogs get an explicit plus.
func (a American) String() string {
	if a.Infinite {
		if a.Favorite {
			return "-inf"
		}
		return "+inf"
	}
	if a.Value > 0 {
		return "+" + strconv.Itoa(a.Value)
	}
	return strconv.Itoa(a.Value)
}

// Scenario shows the rating consequence of one hypothetical outcome.
type Scenario struct {
	Outcome model.Outcome `json:"outcome"`
	DeltaA  float64       `json:"delta_a"`
	DeltaB  float64       `json:"delta_b"`
	NewA    float64       `json:"new_a"`
	NewB    float64       `json:"new_b"`
}

// Preview bundles expected scores, prices, and the full outcome grid for a
// not-yet-decided match.
type Preview struct {
	ExpectedA float64    `json:"expected_a"`
	ExpectedB float64    `json:"expected_b"`
	OddsA     American   `json:"odds_a"`
	OddsB     American   `json:"odds_b"`
	Scenarios []Scenario `json:"scenarios"`
}

// Degenerate reports whether either price hit the infinite sentinel.
func (p Preview) Degenerate() bool {
	return p.OddsA.Infinite || p.OddsB.Infinite
}

// PreviewMatch computes the full preview for two ratings. No state is read
// or written; resolving competitor ratings is the caller's concern.
func PreviewMatch(ratingA, ratingB, k float64) Preview {
	expectedA := elo.ExpectedScore(ratingA, ratingB)
	expectedB := 1 - expectedA

	p := Preview{
		ExpectedA: expectedA,
		ExpectedB: expectedB,
		OddsA:     FromProbability(expectedA),
		OddsB:     FromProbability(expectedB),
	}

	for _, outcome := range []model.Outcome{model.OutcomeAWin, model.OutcomeBWin, model.OutcomeDraw} {
		d, err := elo.ApplyOutcome(ratingA, ratingB, outcome, k)
		if err != nil {
			continue // unreachable with the fixed outcome list
		}
		p.Scenarios = append(p.Scenarios, Scenario{
			Outcome: outcome,
			DeltaA:  d.A,
			DeltaB:  d.B,
			NewA:    ratingA + d.A,
			NewB:    ratingB + d.B,
		})
	}

	return p
}
