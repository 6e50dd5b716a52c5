package scoring

import (
	"maps"
	"slices"

	"FinSignal/internal/services/features"
)

// Aggregate is the weight-renormalized mean over the components actually present.
// No present component yields 0.
func Aggregate(clean map[string]float64, weights map[string]float64) float64 {
	acc, total := 0.0, 0.0
	for _, name := range componentOrder(clean) {
		v := clean[name]
		w, ok := weights[name]
		if !ok || w <= 0 {
			continue
		}
		acc += w * features.Clamp(v, -1, 1)
		total += w
	}
	if total <= 0 {
		return 0
	}
	return features.Clamp(acc/total, -1, 1)
}

// componentOrder returns the keys of clean sorted, so float sums over components
// always run in the same order.
func componentOrder(clean map[string]float64) []string {
	return slices.Sorted(maps.Keys(clean))
}
