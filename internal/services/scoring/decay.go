package scoring

import (
	"fmt"
	"math"
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/features"
	"FinSignal/pkg/util"
)

// DecayWeight is 0.5^(days/halfLife) with the first grace hours of age free.
// Items dated in the future weigh 1.
func DecayWeight(age time.Duration, halfLifeDays float64, grace time.Duration) float64 {
	eff := age - grace
	if eff < 0 {
		eff = 0
	}
	days := eff.Hours() / 24
	return math.Pow(0.5, days/halfLifeDays)
}

// ApplyNewsDecay blends a recency-weighted news sentiment into base using the news
// share of the weight table. Returns base unchanged when no item is usable.
func ApplyNewsDecay(base float64, items []models.NewsItem, now time.Time, cal Calibration, q *models.InputQuality) float64 {
	if len(items) == 0 {
		return base
	}
	sumW, sumWS := 0.0, 0.0
	for i, it := range items {
		field := fmt.Sprintf("news[%d]", i)
		published, ok := util.ParseTime(it.Published)
		if !ok {
			q.Add(models.QualityBadTimestamp, field, it.Published)
			continue
		}
		s, ok := toFloat(it.Sentiment)
		if !ok {
			q.Add(models.QualityNonNumeric, field+".sentiment", fmt.Sprintf("%T", it.Sentiment))
			continue
		}
		if !features.Finite(s) {
			q.Add(models.QualityNonFinite, field+".sentiment", "")
			continue
		}
		if s < -1 || s > 1 {
			q.Add(models.QualityClamped, field+".sentiment", "")
			s = features.Clamp(s, -1, 1)
		}
		w := DecayWeight(now.Sub(published), cal.HalfLifeDays(), cal.DecayGrace())
		sumW += w
		sumWS += w * s
	}
	if sumW <= 0 {
		return base
	}
	weighted := sumWS / sumW
	return features.Clamp(base+(weighted-base)*cal.Weight(models.ComponentNews), -1, 1)
}
