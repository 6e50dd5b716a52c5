package temporal

import (
	"fmt"

	"FinSignal/internal/domain/models"
)

const (
	momentumTrend    = 0.15
	momentumVelocity = 0.1
	reversalAccel    = 0.2
	overallMinimum   = 1.5

	momentumWeight = 1.0
	reversalWeight = 0.75
)

func hold(reason string) models.SignalRecommendation {
	return models.SignalRecommendation{Action: models.ActionHold, Reasoning: reason}
}

func momentumSignal(r models.TemporalAnalysisResult) models.SignalRecommendation {
	switch {
	case r.Trend > momentumTrend && r.Velocity > momentumVelocity:
		return models.SignalRecommendation{
			Action:    models.ActionBuy,
			Strength:  momentumWeight,
			Reasoning: fmt.Sprintf("Positive momentum: trend %.3f/h, velocity %.3f/h", r.Trend, r.Velocity),
		}
	case r.Trend < -momentumTrend && r.Velocity < -momentumVelocity:
		return models.SignalRecommendation{
			Action:    models.ActionSell,
			Strength:  momentumWeight,
			Reasoning: fmt.Sprintf("Negative momentum: trend %.3f/h, velocity %.3f/h", r.Trend, r.Velocity),
		}
	default:
		return hold("No significant momentum")
	}
}

func reversalSignal(r models.TemporalAnalysisResult) models.SignalRecommendation {
	switch {
	case r.Acceleration > reversalAccel && r.Trend < 0:
		return models.SignalRecommendation{
			Action:    models.ActionBuy,
			Strength:  reversalWeight,
			Reasoning: fmt.Sprintf("Bullish reversal: acceleration %.3f against downtrend", r.Acceleration),
		}
	case r.Acceleration < -reversalAccel && r.Trend > 0:
		return models.SignalRecommendation{
			Action:    models.ActionSell,
			Strength:  reversalWeight,
			Reasoning: fmt.Sprintf("Bearish reversal: acceleration %.3f against uptrend", r.Acceleration),
		}
	default:
		return hold("No reversal detected")
	}
}

func regimeSignal(r models.TemporalAnalysisResult) models.SignalRecommendation {
	weight := 0.5 + 0.5*r.RegimeStability
	switch r.Regime {
	case models.TemporalBullish:
		return models.SignalRecommendation{
			Action:    models.ActionBuy,
			Strength:  weight,
			Reasoning: fmt.Sprintf("Bullish regime for %.1fh (stability %.2f)", r.RegimeDurationHours, r.RegimeStability),
		}
	case models.TemporalBearish:
		return models.SignalRecommendation{
			Action:    models.ActionSell,
			Strength:  weight,
			Reasoning: fmt.Sprintf("Bearish regime for %.1fh (stability %.2f)", r.RegimeDurationHours, r.RegimeStability),
		}
	case models.TemporalVolatile:
		return hold("Volatile regime")
	case models.TemporalNeutral:
		return hold("Neutral regime")
	case models.TemporalInsufficientData:
		return hold(insufficientReason)
	}
	return hold("Unknown regime")
}

// deriveSignals needs two of the three sub-signals to agree and their combined
// strength to reach overallMinimum before the overall signal leaves HOLD.
func deriveSignals(r models.TemporalAnalysisResult) models.TemporalSignals {
	s := models.TemporalSignals{
		Momentum: momentumSignal(r),
		Reversal: reversalSignal(r),
		Regime:   regimeSignal(r),
	}

	var buys, sells int
	var buyScore, sellScore float64
	for _, sub := range []models.SignalRecommendation{s.Momentum, s.Reversal, s.Regime} {
		switch sub.Action {
		case models.ActionBuy:
			buys++
			buyScore += sub.Strength
		case models.ActionSell:
			sells++
			sellScore += sub.Strength
		case models.ActionHold:
		}
	}

	switch {
	case buys >= 2 && buyScore >= overallMinimum:
		s.Overall = models.SignalRecommendation{
			Action:    models.ActionBuy,
			Strength:  buyScore,
			Reasoning: fmt.Sprintf("%d of 3 temporal signals bullish (score %.2f)", buys, buyScore),
		}
	case sells >= 2 && sellScore >= overallMinimum:
		s.Overall = models.SignalRecommendation{
			Action:    models.ActionSell,
			Strength:  sellScore,
			Reasoning: fmt.Sprintf("%d of 3 temporal signals bearish (score %.2f)", sells, sellScore),
		}
	default:
		s.Overall = hold(fmt.Sprintf("No temporal consensus (%d buy, %d sell)", buys, sells))
	}
	return s
}
