package scoring

import "FinSignal/internal/domain/models"

// Categorize maps (normalized, z) onto the 7-level strength scale.
// Rules are checked top to bottom; the first match wins.
func Categorize(normalized, z float64) models.StrengthCategory {
	switch {
	case normalized >= 85 && z >= 2.0:
		return models.StrengthVeryStrongPositive
	case normalized >= 70 && z >= 1.0:
		return models.StrengthStrongPositive
	case normalized >= 60:
		return models.StrengthModeratePositive
	case normalized <= 15 && z <= -2.0:
		return models.StrengthVeryStrongNegative
	case normalized <= 30 && z <= -1.0:
		return models.StrengthStrongNegative
	case normalized <= 40:
		return models.StrengthModerateNegative
	default:
		return models.StrengthNeutral
	}
}
