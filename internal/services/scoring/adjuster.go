package scoring

import (
	"strconv"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/features"
)

// VolatilityMultiplier maps annualized volatility onto the calibrated range:
// calm markets amplify the score, turbulent ones dampen it.
func VolatilityMultiplier(vol float64, cal Calibration) float64 {
	low, high := cal.VolatilityThresholds()
	lo, hi := cal.VolatilityRange()
	switch {
	case vol < low:
		return hi
	case vol > high:
		return lo
	default:
		frac := (vol - low) / (high - low)
		return hi - frac*(hi-lo)
	}
}

// AdjustForVolatility is the identity when volatility is missing or invalid.
func AdjustForVolatility(score float64, mc *models.MarketContext, cal Calibration, q *models.InputQuality) float64 {
	if mc == nil || mc.Volatility == nil {
		return score
	}
	vol := *mc.Volatility
	if !features.Finite(vol) || vol < 0 {
		q.Add(models.QualityBadVolatility, "market.volatility", strconv.FormatFloat(vol, 'g', -1, 64))
		return score
	}
	return features.Clamp(score*VolatilityMultiplier(vol, cal), -1, 1)
}

// AdjustForRegime is the identity when the regime is empty or unknown.
func AdjustForRegime(score float64, mc *models.MarketContext, cal Calibration, q *models.InputQuality) float64 {
	if mc == nil || mc.Regime == "" {
		return score
	}
	m, ok := cal.RegimeMultiplier(mc.Regime)
	if !ok {
		q.Add(models.QualityUnknownRegime, "market.regime", string(mc.Regime))
		return score
	}
	return features.Clamp(score*m, -1, 1)
}

// regimeConfidence returns the sanitized regime confidence, or nil when absent or unusable.
func regimeConfidence(mc *models.MarketContext, q *models.InputQuality) *float64 {
	if mc == nil || mc.RegimeConfidence == nil {
		return nil
	}
	v := *mc.RegimeConfidence
	if !features.Finite(v) {
		q.Add(models.QualityBadConfidence, "market.regime_confidence", "")
		return nil
	}
	if v < 0 || v > 1 {
		q.Add(models.QualityClamped, "market.regime_confidence", strconv.FormatFloat(v, 'g', -1, 64))
		v = features.Clamp(v, 0, 1)
	}
	return &v
}
