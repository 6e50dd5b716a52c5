package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 24*time.Hour, c.Temporal.Window)
	assert.Equal(t, 252, c.Scoring.LookbackDays)
	assert.Equal(t, 30, c.Scoring.MinSamples)
	assert.Equal(t, "moderate", c.Decision.RiskTolerance)
	assert.Equal(t, 65.0, c.Decision.Moderate.BuyScore)
	assert.Equal(t, -1.5, c.Decision.Conservative.ZSell)
	assert.Equal(t, 0.5, c.Decision.Aggressive.MinConfidence)
	assert.Nil(t, c.Scoring.Weights)
	assert.False(t, c.Kafka.Enabled)
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
temporal:
  window: 12h
decision:
  risk_tolerance: aggressive
  aggressive: {buy_score: 60, sell_score: 40, z_buy: 0.4, z_sell: -0.4, min_confidence: 0.45}
`))
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, c.Temporal.Window)
	assert.Equal(t, 0.95, c.Temporal.DecayFactor)
	assert.Equal(t, 60.0, c.Decision.Aggressive.BuyScore)
	assert.Equal(t, 65.0, c.Decision.Moderate.BuyScore)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"bad environment":       "environment: moon",
		"weights sum":           "scoring: {weights: {news_sentiment: 0.5}}",
		"min samples":           "scoring: {lookback_days: 10, min_samples: 20}",
		"kafka without brokers": "kafka: {enabled: true}",
		"market context url":    "market_context: {enabled: true}",
		"inverted thresholds":   "decision: {moderate: {buy_score: 30, sell_score: 60, z_buy: 1, z_sell: -1, min_confidence: 0.5}}",
		"bad tolerance":         "decision: {risk_tolerance: reckless}",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadShippedConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, "trading.signals", c.Kafka.SignalsTopic)
	assert.Len(t, c.Scoring.Weights, 7)
	assert.Equal(t, 0.6, c.Scoring.RegimeMultipliers["crisis"])
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	env := map[string]string{
		"KAFKA_BROKERS":  "k1:9092,k2:9092",
		"REDIS_ADDR":     "redis:6379",
		"LOG_LEVEL":      "DEBUG",
		"RISK_TOLERANCE": "Conservative",
		"HTTP_PORT":      "9090",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "redis:6379", c.Redis.Addr)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "conservative", c.Decision.RiskTolerance)
	assert.Equal(t, 9090, c.Server.Port)
	assert.NoError(t, c.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
