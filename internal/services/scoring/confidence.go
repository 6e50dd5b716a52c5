package scoring

import (
	"math"

	"FinSignal/internal/services/features"
)

const (
	shareAvailability = 0.30
	shareConsensus    = 0.25
	shareStability    = 0.20
	shareRegime       = 0.15
	shareSampleSize   = 0.10

	consensusScale = 0.5
	stabilityScale = 0.3
	stabilityDepth = 5
)

// Confidence sums the present factor terms; an omitted term contributes nothing.
// h must be the history before the current score is appended.
func Confidence(clean map[string]float64, h *History, regimeConf *float64, cal Calibration) float64 {
	canonical := len(cal.weights)
	if canonical == 0 {
		return 0
	}
	total := shareAvailability * features.Clamp(float64(len(clean))/float64(canonical), 0, 1)

	if len(clean) >= 2 {
		vals := make([]float64, 0, len(clean))
		for _, name := range componentOrder(clean) {
			vals = append(vals, clean[name])
		}
		total += shareConsensus * math.Max(0, 1-features.StdDev(vals)/consensusScale)
	}

	if h.Len() >= stabilityDepth {
		total += shareStability * math.Max(0, 1-features.StdDev(h.Last(stabilityDepth))/stabilityScale)
	}

	if regimeConf != nil {
		total += shareRegime * features.Clamp(*regimeConf, 0, 1)
	}

	total += shareSampleSize * math.Min(1, float64(h.Len())/float64(cal.MinSamples()))

	return features.Clamp(total, 0, 1)
}
