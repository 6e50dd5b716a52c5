package temporal

import (
	"math"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/features"
)

const (
	patternSpan            = 5
	momentumThreshold      = 0.1
	reversalThreshold      = 0.2
	spikeFloor             = 0.3
	spikeBaselineRatio     = 2.0
	reversalMinimum        = patternSpan + 1
	volatilitySpikeMinimum = patternSpan + 2
)

func direction(delta float64) string {
	if delta > 0 {
		return "upward"
	}
	return "downward"
}

func detectPatterns(scores []float64) []models.Pattern {
	patterns := []models.Pattern{}

	recent := lastN(scores, patternSpan)
	if delta := recent[len(recent)-1] - recent[0]; math.Abs(delta) > momentumThreshold {
		patterns = append(patterns, models.Pattern{
			Type:       models.PatternMomentum,
			Direction:  direction(delta),
			Strength:   math.Abs(delta),
			Confidence: math.Min(1, math.Abs(delta)*3),
		})
	}

	if len(scores) >= reversalMinimum {
		early := scores[patternSpan-1] - scores[0]
		late := recent[len(recent)-1] - recent[0]
		if early*late < 0 && math.Abs(late-early) > reversalThreshold {
			mag := math.Abs(late - early)
			patterns = append(patterns, models.Pattern{
				Type:       models.PatternReversal,
				Direction:  direction(late),
				Strength:   mag,
				Confidence: math.Min(1, mag*2),
			})
		}
	}

	if len(scores) >= volatilitySpikeMinimum {
		baseline := features.StdDev(scores[:len(scores)-patternSpan])
		current := features.StdDev(recent)
		if current > spikeBaselineRatio*baseline && current > spikeFloor {
			patterns = append(patterns, models.Pattern{
				Type:       models.PatternVolatilitySpike,
				Direction:  "expanding",
				Strength:   current,
				Confidence: math.Min(1, current/(spikeFloor*2)),
			})
		}
	}
	return patterns
}
