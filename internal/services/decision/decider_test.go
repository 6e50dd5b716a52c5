package decision

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/scoring"
	"FinSignal/pkg/logger"
)

var at = time.Date(2025, 4, 1, 14, 30, 0, 0, time.UTC)

func metrics(normalized, z, conf float64, cat models.StrengthCategory) models.SentimentMetrics {
	return models.SentimentMetrics{
		Symbol:          "AAPL",
		Timestamp:       at,
		NormalizedScore: normalized,
		ZScore:          z,
		Confidence:      conf,
		Strength:        cat,
		PercentileRank:  50,
	}
}

func temporalWith(action models.SignalAction) *models.TemporalAnalysisResult {
	return &models.TemporalAnalysisResult{
		Regime:  models.TemporalNeutral,
		Signals: models.TemporalSignals{Overall: models.SignalRecommendation{Action: action}},
	}
}

func TestDecideHoldOnEmptyHistory(t *testing.T) {
	d := NewDecider(DefaultThresholds(), nil)
	sig := d.Decide(metrics(80, 0, 0.9, models.StrengthModeratePositive), models.RiskModerate, nil)

	assert.Equal(t, models.SignalHold, sig.Signal)
	assert.Empty(t, sig.Strength)
	assert.Contains(t, sig.Reasoning, "HOLD for moderate tolerance")
	assert.Contains(t, sig.Reasoning, "z 0.00 inside")
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		m         models.SentimentMetrics
		rt        models.RiskTolerance
		want      models.SignalType
		strength  models.SignalStrength
		reasoning string
	}{
		{"strong buy", metrics(90, 2.5, 0.85, models.StrengthVeryStrongPositive), models.RiskModerate, models.SignalStrongBuy, models.StrengthStrong, "statistically extreme"},
		{"moderate buy", metrics(72, 1.2, 0.65, models.StrengthStrongPositive), models.RiskModerate, models.SignalBuy, models.StrengthModerate, "statistically significant"},
		{"weak buy", metrics(66, 1.0, 0.6, models.StrengthModeratePositive), models.RiskModerate, models.SignalBuy, models.StrengthWeak, "moderate confidence"},
		{"conservative rejects", metrics(72, 1.2, 0.65, models.StrengthStrongPositive), models.RiskConservative, models.SignalHold, "", "HOLD for conservative"},
		{"aggressive accepts", metrics(59, 0.6, 0.55, models.StrengthNeutral), models.RiskAggressive, models.SignalBuy, models.StrengthWeak, "treat with caution"},
		{"strong sell", metrics(10, -2.4, 0.9, models.StrengthVeryStrongNegative), models.RiskModerate, models.SignalStrongSell, models.StrengthStrong, "high confidence"},
		{"sell", metrics(28, -1.1, 0.7, models.StrengthStrongNegative), models.RiskModerate, models.SignalSell, models.StrengthModerate, "SELL gate met"},
		{"low confidence holds", metrics(90, 2.5, 0.3, models.StrengthVeryStrongPositive), models.RiskModerate, models.SignalHold, "", "confidence 0.30 below 0.60"},
	}
	d := NewDecider(DefaultThresholds(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := d.Decide(tt.m, tt.rt, nil)
			assert.Equal(t, tt.want, sig.Signal)
			assert.Equal(t, tt.strength, sig.Strength)
			assert.Contains(t, sig.Reasoning, tt.reasoning)
		})
	}
}

func TestDecideTemporalDowngrade(t *testing.T) {
	d := NewDecider(DefaultThresholds(), nil)
	m := metrics(90, 2.5, 0.85, models.StrengthVeryStrongPositive)

	opposed := d.Decide(m, models.RiskModerate, temporalWith(models.ActionSell))
	assert.Equal(t, models.SignalBuy, opposed.Signal)
	assert.Equal(t, models.StrengthModerate, opposed.Strength)
	assert.Contains(t, opposed.Reasoning, "strength reduced")

	agreed := d.Decide(m, models.RiskModerate, temporalWith(models.ActionBuy))
	assert.Equal(t, models.SignalStrongBuy, agreed.Signal)
	assert.Contains(t, agreed.Reasoning, "temporal trend confirms")

	neutral := d.Decide(m, models.RiskModerate, temporalWith(models.ActionHold))
	assert.Equal(t, models.SignalStrongBuy, neutral.Signal)
	assert.NotContains(t, neutral.Reasoning, "temporal")
}

func TestDecideUnknownToleranceFallsBackToModerate(t *testing.T) {
	var buf bytes.Buffer
	d := NewDecider(DefaultThresholds(), logger.NewWriter(&buf, zerolog.WarnLevel))

	sig := d.Decide(metrics(66, 1.0, 0.6, models.StrengthModeratePositive), "yolo", nil)
	assert.Equal(t, models.SignalBuy, sig.Signal)
	assert.Equal(t, "moderate", sig.SupportingData["risk_tolerance"])
	assert.Contains(t, buf.String(), "unknown risk tolerance")
}

func TestDecideSupportingData(t *testing.T) {
	d := NewDecider(DefaultThresholds(), nil, WithIDGenerator(func() string { return "sig-1" }))
	sig := d.Decide(metrics(50, 0, 0.5, models.StrengthNeutral), models.RiskAggressive, temporalWith(models.ActionHold))

	assert.Equal(t, "sig-1", sig.ID)
	assert.Equal(t, at, sig.Timestamp)
	assert.Equal(t, "AAPL", sig.Symbol)
	th, ok := sig.SupportingData["thresholds"].(map[string]float64)
	require.True(t, ok)
	assert.Equal(t, 58.0, th["buy_score"])
	assert.Contains(t, sig.SupportingData, "temporal")
	assert.Contains(t, sig.SupportingData, "z_score")
}

func TestDecideGeneratesUUID(t *testing.T) {
	sig := NewDecider(DefaultThresholds(), nil).Decide(metrics(50, 0, 0.5, models.StrengthNeutral), models.RiskModerate, nil)
	_, err := uuid.Parse(sig.ID)
	assert.NoError(t, err)
}

func TestThresholdTableValidate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	bad := DefaultThresholds()
	bad.Aggressive.SellScore = 70
	assert.ErrorContains(t, bad.Validate(), "aggressive thresholds")

	bad = DefaultThresholds()
	bad.Moderate.MinConfidence = 1.2
	assert.Error(t, bad.Validate())
}

func TestOrdinal(t *testing.T) {
	for n, want := range map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 50: "50th", 100: "100th"} {
		assert.Equal(t, want, ordinal(n))
	}
}

func TestDecideRepeatedIdenticalInputsHold(t *testing.T) {
	e := scoring.NewEngine(scoring.DefaultCalibration(), nil)
	d := NewDecider(DefaultThresholds(), nil)
	h := e.NewHistory()
	components := models.SentimentComponents{}
	for _, name := range models.CanonicalComponents {
		components[name] = 0.7
	}

	for i := 0; i < 40; i++ {
		m := e.Score(h, scoring.Input{Symbol: "AAPL", Components: components, At: at}).Metrics
		sig := d.Decide(m, models.RiskModerate, nil)
		assert.Equal(t, 0.0, m.ZScore, "call %d", i)
		assert.Equal(t, models.SignalHold, sig.Signal, "call %d", i)
	}
}
