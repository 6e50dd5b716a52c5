package temporal

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
)

var base = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

// feed adds hourly observations starting at base and returns an analyzer whose
// clock sits on the last observation.
func feed(t *testing.T, scores ...float64) (*Analyzer, *Series) {
	t.Helper()
	now := base.Add(time.Duration(len(scores)-1) * time.Hour)
	a := NewAnalyzer(DefaultConfig(), WithClock(func() time.Time { return now }))
	s := a.NewSeries()
	for i, v := range scores {
		a.Add(s, models.SentimentObservation{
			Timestamp:      base.Add(time.Duration(i) * time.Hour),
			Symbol:         "AAPL",
			SentimentScore: v,
			Confidence:     1,
			RelevanceScore: 1,
		})
	}
	return a, s
}

func TestAnalyzeInsufficientData(t *testing.T) {
	for _, scores := range [][]float64{nil, {0.4}} {
		a, s := feed(t, scores...)
		res := a.Analyze("AAPL", s)

		assert.Equal(t, models.TemporalInsufficientData, res.Regime)
		assert.Zero(t, res.Trend)
		assert.Zero(t, res.Velocity)
		assert.Zero(t, res.Confidence)
		assert.Empty(t, res.Patterns)
		for _, sig := range []models.SignalRecommendation{res.Signals.Momentum, res.Signals.Reversal, res.Signals.Regime, res.Signals.Overall} {
			assert.Equal(t, models.ActionHold, sig.Action)
			assert.Equal(t, "Insufficient historical data", sig.Reasoning)
		}
	}
}

func TestAnalyzeSteadyRise(t *testing.T) {
	a, s := feed(t, 0.1, 0.15, 0.2, 0.25, 0.3)
	res := a.Analyze("AAPL", s)

	assert.Equal(t, 5, res.Observations)
	assert.Greater(t, res.Trend, 0.0)
	assert.InDelta(t, 0.05, res.Trend, 1e-9)
	assert.InDelta(t, 0.05, res.Velocity, 1e-9)
	assert.InDelta(t, 0.0, res.Acceleration, 1e-9)
	assert.Equal(t, models.TemporalNeutral, res.Regime)
	assert.Equal(t, 1.0, res.RegimeStability)
	assert.InDelta(t, 4.0, res.RegimeDurationHours, 1e-9)

	require.NotEmpty(t, res.Patterns)
	assert.Equal(t, models.PatternMomentum, res.Patterns[0].Type)
	assert.Equal(t, "upward", res.Patterns[0].Direction)
	assert.InDelta(t, 0.2, res.Patterns[0].Strength, 1e-9)
	assert.InDelta(t, 0.6, res.Patterns[0].Confidence, 1e-9)

	assert.GreaterOrEqual(t, res.Confidence, 0.0)
	assert.LessOrEqual(t, res.Confidence, 1.0)
	assert.Equal(t, models.ActionHold, res.Signals.Overall.Action)
}

func TestAnalyzeOverallBuy(t *testing.T) {
	a, s := feed(t, 0.2, 0.4, 0.6, 0.8, 1.0)
	res := a.Analyze("AAPL", s)

	assert.Equal(t, models.TemporalBullish, res.Regime)
	assert.Equal(t, models.ActionBuy, res.Signals.Momentum.Action)
	assert.Equal(t, models.ActionBuy, res.Signals.Regime.Action)
	assert.Equal(t, models.ActionHold, res.Signals.Reversal.Action)
	assert.Equal(t, models.ActionBuy, res.Signals.Overall.Action)
	assert.InDelta(t, 2.0, res.Signals.Overall.Strength, 1e-9)
}

func TestAnalyzeSingleSubSignalHolds(t *testing.T) {
	a, s := feed(t, 0.5, 0.5, 0.5, 0.5, 0.5)
	res := a.Analyze("AAPL", s)

	assert.Equal(t, models.TemporalBullish, res.Regime)
	assert.Equal(t, models.ActionBuy, res.Signals.Regime.Action)
	assert.Equal(t, models.ActionHold, res.Signals.Overall.Action)
	assert.Empty(t, res.Patterns)
}

func TestAnalyzeVolatileRegime(t *testing.T) {
	a, s := feed(t, 1, -1, 1, -1, 1)
	res := a.Analyze("AAPL", s)
	assert.Equal(t, models.TemporalVolatile, res.Regime)
	assert.Equal(t, models.ActionHold, res.Signals.Regime.Action)
}

func TestAnalyzeReversalPattern(t *testing.T) {
	a, s := feed(t, 0.5, 0.4, 0.3, 0.2, 0.1, 0.2, 0.3, 0.4, 0.5)
	res := a.Analyze("AAPL", s)

	var found *models.Pattern
	for i := range res.Patterns {
		if res.Patterns[i].Type == models.PatternReversal {
			found = &res.Patterns[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "upward", found.Direction)
	assert.InDelta(t, 0.8, found.Strength, 1e-9)
}

func TestAnalyzeVolatilitySpike(t *testing.T) {
	a, s := feed(t, 0, 0, 0, 0, 0, 0.8, -0.8, 0.8, -0.8, 0.8)
	res := a.Analyze("AAPL", s)

	types := map[models.PatternType]bool{}
	for _, p := range res.Patterns {
		types[p.Type] = true
	}
	assert.True(t, types[models.PatternVolatilitySpike])
}

func TestAnalyzeRegimeChangeShortensDuration(t *testing.T) {
	a, s := feed(t, -0.6, -0.6, -0.6, -0.6, -0.6, 0.6, 0.6, 0.6, 0.6, 0.6)
	res := a.Analyze("AAPL", s)

	assert.Equal(t, models.TemporalBullish, res.Regime)
	assert.Less(t, res.RegimeDurationHours, 9.0)
	assert.LessOrEqual(t, res.RegimeStability, 1.0)
}

func TestWeightedCurrentSentiment(t *testing.T) {
	now := base.Add(2 * time.Hour)
	a := NewAnalyzer(DefaultConfig(), WithClock(func() time.Time { return now }))
	s := a.NewSeries()
	a.Add(s, models.SentimentObservation{Timestamp: base, SentimentScore: 1, Confidence: 1, RelevanceScore: 1})
	a.Add(s, models.SentimentObservation{Timestamp: now, SentimentScore: 0, Confidence: 1, RelevanceScore: 1})

	res := a.Analyze("AAPL", s)
	w := 0.95 * 0.95
	assert.InDelta(t, w/(w+1), res.WeightedCurrentSentiment, 1e-9)
}

func TestWeightedCurrentSentimentZeroWeights(t *testing.T) {
	now := base.Add(time.Hour)
	a := NewAnalyzer(DefaultConfig(), WithClock(func() time.Time { return now }))
	s := a.NewSeries()
	a.Add(s, models.SentimentObservation{Timestamp: base, SentimentScore: 0.4})
	a.Add(s, models.SentimentObservation{Timestamp: now, SentimentScore: 0.2})

	res := a.Analyze("AAPL", s)
	assert.InDelta(t, 0.3, res.WeightedCurrentSentiment, 1e-9)
}

func TestAddPrunesAndBounds(t *testing.T) {
	now := base.Add(72 * time.Hour)
	a := NewAnalyzer(Config{Capacity: 3}, WithClock(func() time.Time { return now }))
	s := a.NewSeries()

	a.Add(s, models.SentimentObservation{Timestamp: now.Add(-50 * time.Hour)})
	a.Add(s, models.SentimentObservation{Timestamp: now.Add(-30 * time.Hour)})
	assert.Equal(t, 1, s.Len())

	for i := 0; i < 5; i++ {
		a.Add(s, models.SentimentObservation{Timestamp: now.Add(time.Duration(i-5) * time.Minute)})
	}
	assert.Equal(t, 3, s.Len())
}

func TestAnalyzeIgnoresObservationsOutsideWindow(t *testing.T) {
	now := base.Add(30 * time.Hour)
	a := NewAnalyzer(DefaultConfig(), WithClock(func() time.Time { return now }))
	s := a.NewSeries()
	a.Add(s, models.SentimentObservation{Timestamp: base, SentimentScore: 0.9})
	a.Add(s, models.SentimentObservation{Timestamp: now, SentimentScore: 0.1})

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, models.TemporalInsufficientData, a.Analyze("AAPL", s).Regime)
}

func TestConfidenceBands(t *testing.T) {
	assert.InDelta(t, 0.5+0.2+0.15+0.125, confidence(0.2, 0.1, 0.5), 1e-12)
	assert.Equal(t, 1.0, confidence(0.2, 0.1, 1))
	assert.InDelta(t, 0.5+0.1+0.1, confidence(0.07, 0.3, 0), 1e-12)
	assert.InDelta(t, 0.4, confidence(0, 0.5, 0), 1e-12)
}

func TestAnalyzeOutOfOrderObservationsStayFinite(t *testing.T) {
	orders := map[string][]int{
		"reversed":    {7, 6, 5, 4, 3, 2, 1, 0},
		"interleaved": {0, 4, 1, 5, 2, 6, 3, 7},
		"duplicates":  {3, 3, 1, 1, 5, 5, 0, 0},
	}
	scores := []float64{-0.6, 0.4, -0.2, 0.9, -0.8, 0.3, 0.7, -0.1}
	now := base.Add(7 * time.Hour)

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			a := NewAnalyzer(DefaultConfig(), WithClock(func() time.Time { return now }))
			s := a.NewSeries()
			for i, h := range order {
				a.Add(s, models.SentimentObservation{
					Timestamp:      base.Add(time.Duration(h) * time.Hour),
					Symbol:         "AAPL",
					SentimentScore: scores[i],
					Confidence:     1,
					RelevanceScore: 1,
				})
			}

			var res models.TemporalAnalysisResult
			require.NotPanics(t, func() { res = a.Analyze("AAPL", s) })
			for field, v := range map[string]float64{
				"trend":        res.Trend,
				"velocity":     res.Velocity,
				"acceleration": res.Acceleration,
				"volatility":   res.Volatility,
				"duration":     res.RegimeDurationHours,
				"current":      res.WeightedCurrentSentiment,
			} {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s = %v", field, v)
			}
			assert.GreaterOrEqual(t, res.Confidence, 0.0)
			assert.LessOrEqual(t, res.Confidence, 1.0)
		})
	}
}
