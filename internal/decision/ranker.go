// internal/decision/ranker.go
package decision

import (
	"math"
	"sort"
)

const (
	// TopFactors caps how many attributions are explained.
	TopFactors = 10

	StrongImpactFloor   = 0.2
	ModerateImpactFloor = 0.08
)

// Rank orders attributions by descending magnitude, keeps the top
// TopFactors and splits them into positive and negative factors.
// Ties keep their input order.
func Rank(attributions []RawAttribution) ([]Factor, []Factor) {
	ordered := make([]RawAttribution, len(attributions))
	copy(ordered, attributions)

	sort.SliceStable(ordered, func(i, j int) bool {
		return math.Abs(ordered[i].Value) > math.Abs(ordered[j].Value)
	})

	if len(ordered) > TopFactors {
		ordered = ordered[:TopFactors]
	}

	positive := make([]Factor, 0, len(ordered))
	negative := make([]Factor, 0, len(ordered))
	for _, a := range ordered {
		f := newFactor(a)
		if f.Positive {
			positive = append(positive, f)
		} else {
			negative = append(negative, f)
		}
	}

	return positive, negative
}

// ClassifyImpact buckets an absolute contribution.
func ClassifyImpact(absValue float64) Impact {
	switch {
	case absValue >= StrongImpactFloor:
		return ImpactStrong
	case absValue >= ModerateImpactFloor:
		return ImpactModerate
	default:
		return ImpactWeak
	}
}

func newFactor(a RawAttribution) Factor {
	name, description := Annotate(a.Feature)
	return Factor{
		Name:        name,
		Feature:     a.Feature,
		Impact:      ClassifyImpact(math.Abs(a.Value)),
		Description: description,
		Positive:    a.Value > 0,
		ShapValue:   a.Value,
	}
}
