// Package rating holds the rating value type and the belt-derived starting
// points everything else builds on.
package rating

import (
	"fmt"
	"strings"
)

// Belt is the ordered rank progression.
type Belt int

const (
	White Belt = iota
	Blue
	Purple
	Brown
	Black
)

var beltNames = [...]string{"White", "Blue", "Purple", "Brown", "Black"}

func (b Belt) String() string {
	if b < White || b > Black {
		return fmt.Sprintf("Belt(%d)", int(b))
	}
	return beltNames[b]
}

// Valid reports whether b is a known belt.
func (b Belt) Valid() bool {
	return b >= White && b <= Black
}

// ParseBelt resolves a belt by name, case-insensitively.
func ParseBelt(s string) (Belt, error) {
	for i, name := range beltNames {
		if strings.EqualFold(s, name) {
			return Belt(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBelt, s)
}

// Starting ratings per belt. Two inconsistent tables circulated in the
// source material; this is the even 200-point ladder, chosen as canonical.
// See DESIGN.md before touching these numbers.
var startingTable = map[Belt]float64{
	White:  1200,
	Blue:   1400,
	Purple: 1600,
	Brown:  1800,
	Black:  2000,
}

// StartingRating returns the fixed starting rating for a belt. Unknown belts
// fall back to the White starting point rather than failing; a missing
// rating must never block an update.
func StartingRating(b Belt) float64 {
	if v, ok := startingTable[b]; ok {
		return v
	}
	return startingTable[White]
}

// Rating carries a competitor's current value and its immutable origin.
// It is passed by value into pure update functions; persisting a new value
// is an explicit write step, never a side effect of computing a delta.
type Rating struct {
	Start   float64
	Current float64
}

// NewFromBelt assigns the starting rating for a belt. Start is fixed for the
// life of the competitor.
func NewFromBelt(b Belt) Rating {
	s := StartingRating(b)
	return Rating{Start: s, Current: s}
}

// Gain is current minus start: the ladder's default ranking key.
func (r Rating) Gain() float64 {
	return r.Current - r.Start
}

// Applied returns a copy with delta added to the current value.
func (r Rating) Applied(delta float64) Rating {
	r.Current += delta
	return r
}

// Reset returns a copy with the current value back at the starting point.
func (r Rating) Reset() Rating {
	r.Current = r.Start
	return r
}
