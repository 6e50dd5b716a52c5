package decision

import (
	"fmt"
	"math"
	"strings"

	"FinSignal/internal/domain/models"
)

func ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func percentileText(p float64) string {
	pos := ordinal(int(math.Round(p)))
	switch {
	case p >= 80:
		return fmt.Sprintf("score in the top of its history (%s percentile)", pos)
	case p <= 20:
		return fmt.Sprintf("score in the bottom of its history (%s percentile)", pos)
	default:
		return fmt.Sprintf("score near the middle of its history (%s percentile)", pos)
	}
}

func zText(z float64) string {
	switch a := math.Abs(z); {
	case a >= 2:
		return fmt.Sprintf("statistically extreme (z=%.2f)", z)
	case a >= 1:
		return fmt.Sprintf("statistically significant (z=%.2f)", z)
	default:
		return fmt.Sprintf("within normal range (z=%.2f)", z)
	}
}

func confidenceText(c float64) string {
	switch {
	case c >= 0.8:
		return fmt.Sprintf("high confidence (%.2f)", c)
	case c >= 0.6:
		return fmt.Sprintf("moderate confidence (%.2f)", c)
	default:
		return fmt.Sprintf("low confidence (%.2f), treat with caution", c)
	}
}

func headline(action models.SignalAction, m models.SentimentMetrics, th Thresholds, rt models.RiskTolerance) string {
	switch action {
	case models.ActionBuy:
		return fmt.Sprintf("BUY gate met for %s tolerance: normalized %.1f >= %.0f, z %.2f >= %.2f",
			rt, m.NormalizedScore, th.BuyScore, m.ZScore, th.ZBuy)
	case models.ActionSell:
		return fmt.Sprintf("SELL gate met for %s tolerance: normalized %.1f <= %.0f, z %.2f <= %.2f",
			rt, m.NormalizedScore, th.SellScore, m.ZScore, th.ZSell)
	case models.ActionHold:
	}
	var misses []string
	if m.NormalizedScore > th.SellScore && m.NormalizedScore < th.BuyScore {
		misses = append(misses, fmt.Sprintf("normalized %.1f between %.0f and %.0f", m.NormalizedScore, th.SellScore, th.BuyScore))
	}
	if m.ZScore < th.ZBuy && m.ZScore > th.ZSell {
		misses = append(misses, fmt.Sprintf("z %.2f inside (%.2f, %.2f)", m.ZScore, th.ZSell, th.ZBuy))
	}
	if m.Confidence < th.MinConfidence {
		misses = append(misses, fmt.Sprintf("confidence %.2f below %.2f", m.Confidence, th.MinConfidence))
	}
	if len(misses) == 0 {
		misses = append(misses, "score and z-score point in different directions")
	}
	return fmt.Sprintf("HOLD for %s tolerance: %s", rt, strings.Join(misses, ", "))
}
