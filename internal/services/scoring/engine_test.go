package scoring

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/logger"
)

var fixedAt = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func TestEngineScoreEmptyHistory(t *testing.T) {
	e := NewEngine(DefaultCalibration(), nil)
	h := e.NewHistory()

	res := e.Score(h, Input{
		Symbol: "AAPL",
		Components: models.SentimentComponents{
			models.ComponentNews:      0.25,
			models.ComponentSocial:    0.15,
			models.ComponentTechnical: -0.1,
			models.ComponentAnalyst:   0.1,
		},
		At: fixedAt,
	})

	m := res.Metrics
	assert.Equal(t, "AAPL", m.Symbol)
	assert.Equal(t, fixedAt, m.Timestamp)
	assert.Equal(t, 0.0, m.ZScore)
	assert.Equal(t, 50.0, m.PercentileRank)
	assert.InDelta(t, 0.0875/0.75, m.RawScore, 1e-12)
	assert.Equal(t, m.RawScore, m.MarketAdjustedScore)
	assert.InDelta(t, (m.RawScore+1)/2*100, m.NormalizedScore, 1e-9)
	assert.Equal(t, models.StrengthNeutral, m.Strength)
	assert.True(t, res.Quality.Clean())
	assert.Equal(t, 1, h.Len())
}

func TestEngineScoreCrisisRegime(t *testing.T) {
	e := NewEngine(DefaultCalibration(), nil)
	res := e.Score(e.NewHistory(), Input{
		Symbol:     "TSLA",
		Components: models.SentimentComponents{models.ComponentNews: 0.5},
		Market:     &models.MarketContext{Regime: models.RegimeCrisis},
		At:         fixedAt,
	})
	assert.InDelta(t, 0.5, res.Metrics.RawScore, 1e-12)
	assert.InDelta(t, 0.5, res.Metrics.VolatilityAdjustedScore, 1e-12)
	assert.InDelta(t, 0.3, res.Metrics.MarketAdjustedScore, 1e-12)
	assert.InDelta(t, 65.0, res.Metrics.NormalizedScore, 1e-9)
}

func TestEngineScoreAppendsAdjustedScore(t *testing.T) {
	e := NewEngine(DefaultCalibration(), nil)
	h := e.NewHistory()
	in := Input{
		Symbol:     "MSFT",
		Components: models.SentimentComponents{models.ComponentNews: 0.5},
		Market:     &models.MarketContext{Regime: models.RegimeCrisis},
		At:         fixedAt,
	}
	e.Score(h, in)
	require.Equal(t, 1, h.Len())
	assert.InDelta(t, 0.3, h.Values()[0], 1e-12)
}

func TestEngineScoreDependsOnHistory(t *testing.T) {
	cal, err := NewCalibration(WithMinSamples(5), WithLookback(20))
	require.NoError(t, err)
	e := NewEngine(cal, nil)
	h := e.NewHistory()
	for _, v := range []float64{-0.2, -0.1, 0, 0.1, 0.2} {
		e.Score(h, Input{Symbol: "NVDA", Components: models.SentimentComponents{models.ComponentNews: v}, At: fixedAt})
	}

	in := Input{Symbol: "NVDA", Components: models.SentimentComponents{models.ComponentNews: 0.6}, At: fixedAt}
	first := e.Score(h, in)
	second := e.Score(h, in)

	assert.Greater(t, first.Metrics.ZScore, 0.0)
	assert.NotEqual(t, first.Metrics.ZScore, second.Metrics.ZScore)
	assert.Equal(t, 100.0, first.Metrics.PercentileRank)
}

func TestEngineLogsQualityIssues(t *testing.T) {
	var buf bytes.Buffer
	e := NewEngine(DefaultCalibration(), logger.NewWriter(&buf, zerolog.DebugLevel))

	res := e.Score(NewHistory(10), Input{
		Symbol:     "AMD",
		Components: models.SentimentComponents{models.ComponentNews: "n/a", models.ComponentSocial: 0.2},
		Market:     &models.MarketContext{Regime: "sideways"},
		At:         fixedAt,
	})

	require.Len(t, res.Quality.Issues, 2)
	assert.Contains(t, buf.String(), "input quality issue")
	assert.Contains(t, buf.String(), `"kind":"unknown_regime"`)
	assert.InDelta(t, 0.2, res.Metrics.MarketAdjustedScore, 1e-12)
}

func TestEngineEmptyComponents(t *testing.T) {
	e := NewEngine(DefaultCalibration(), nil)
	res := e.Score(e.NewHistory(), Input{Symbol: "X", At: fixedAt})
	assert.Equal(t, 0.0, res.Metrics.RawScore)
	assert.Equal(t, 50.0, res.Metrics.NormalizedScore)
	assert.Equal(t, models.StrengthNeutral, res.Metrics.Strength)
	assert.Equal(t, 0.0, res.Metrics.Confidence)
}

func TestEngineScoreIsDeterministic(t *testing.T) {
	e := NewEngine(DefaultCalibration(), nil)
	values := []float64{0.12, -0.07, 0.31, 0.05, -0.22, 0.18, 0.09}
	components := models.SentimentComponents{}
	for i, name := range models.CanonicalComponents {
		components[name] = values[i%len(values)]
	}
	in := Input{Symbol: "AAPL", Components: components, At: fixedAt}

	first := e.Score(e.NewHistory(), in).Metrics
	for i := 0; i < 500; i++ {
		got := e.Score(e.NewHistory(), in).Metrics
		require.Equal(t, first.RawScore, got.RawScore, "call %d", i)
		require.Equal(t, first.Confidence, got.Confidence, "call %d", i)
		require.Equal(t, first.MarketAdjustedScore, got.MarketAdjustedScore, "call %d", i)
	}
}

func TestEngineRepeatedInputKeepsZeroZScore(t *testing.T) {
	e := NewEngine(DefaultCalibration(), nil)
	h := e.NewHistory()
	components := models.SentimentComponents{}
	for _, name := range models.CanonicalComponents {
		components[name] = 0.7
	}

	for i := 0; i < 40; i++ {
		m := e.Score(h, Input{Symbol: "AAPL", Components: components, At: fixedAt}).Metrics
		assert.Equal(t, 0.0, m.ZScore, "call %d", i)
	}
}
