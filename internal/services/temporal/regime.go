package temporal

import (
	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/features"
)

const (
	regimeWindow     = 5
	stabilityWindows = 3
)

func classify(scores []float64) models.TemporalRegime {
	if features.StdDev(scores) > 0.8 {
		return models.TemporalVolatile
	}
	switch m := features.Mean(scores); {
	case m > 0.3:
		return models.TemporalBullish
	case m < -0.3:
		return models.TemporalBearish
	default:
		return models.TemporalNeutral
	}
}

// windowEnding classifies the (up to) regimeWindow scores ending at index end.
func windowEnding(scores []float64, end int) models.TemporalRegime {
	start := end - regimeWindow + 1
	if start < 0 {
		start = 0
	}
	return classify(scores[start : end+1])
}

// stability is the share of the last three sliding classifications that agree with current.
// Windows need at least two scores, so a two-point series has a single window.
func stability(scores []float64, current models.TemporalRegime) float64 {
	total, match := 0, 0
	for end := len(scores) - 1; end >= 1 && total < stabilityWindows; end-- {
		total++
		if windowEnding(scores, end) == current {
			match++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(match) / float64(total)
}

// duration is the time from the first observation of the current unbroken run of
// matching classifications to the latest observation.
func duration(obs []models.SentimentObservation, scores []float64, current models.TemporalRegime) float64 {
	last := len(scores) - 1
	first := last
	for end := last; end >= 1; end-- {
		if windowEnding(scores, end) != current {
			break
		}
		first = end
	}
	if first == 1 {
		// never differed inside the window
		first = 0
	}
	return obs[last].Timestamp.Sub(obs[first].Timestamp).Hours()
}
