package model

// WeightClass is a named bucket with inclusive/exclusive bounds. Membership
// is a pure function of current weight and is never stored, so a weight
// change can't leave a stale class behind.
type WeightClass struct {
	Name string
	// Min is inclusive, Max is inclusive; math.Inf-style open ends are
	// expressed with the HasMin/HasMax flags.
	Min    float64
	Max    float64
	HasMin bool
	HasMax bool
}

// The three classes the ladder segments on.
var (
	Lightweight  = WeightClass{Name: "Lightweight", Max: 170, HasMax: true}  // weight < 170
	Middleweight = WeightClass{Name: "Middleweight", Min: 170, Max: 200, HasMin: true, HasMax: true}
	Heavyweight  = WeightClass{Name: "Heavyweight", Min: 200, HasMin: true} // weight > 200
)

// WeightClasses lists all classes in ascending order.
var WeightClasses = []WeightClass{Lightweight, Middleweight, Heavyweight}

// Contains reports whether a weight falls inside the class.
// Lightweight's upper bound is exclusive and Heavyweight's lower bound is
// exclusive; Middleweight owns both 170 and 200.
func (wc WeightClass) Contains(weight float64) bool {
	switch wc.Name {
	case Lightweight.Name:
		return weight < wc.Max
	case Heavyweight.Name:
		return weight > wc.Min
	default:
		return weight >= wc.Min && weight <= wc.Max
	}
}

// ClassOf returns the class a weight belongs to. A nil weight has no class.
func ClassOf(weight *float64) (WeightClass, bool) {
	if weight == nil {
		return WeightClass{}, false
	}
	for _, wc := range WeightClasses {
		if wc.Contains(*weight) {
			return wc, true
		}
	}
	return WeightClass{}, false
}

// LookupWeightClass resolves a class by name.
func LookupWeightClass(name string) (WeightClass, bool) {
	for _, wc := range WeightClasses {
		if wc.Name == name {
			return wc, true
		}
	}
	return WeightClass{}, false
}
