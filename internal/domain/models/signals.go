package models

import (
	"strings"
	"time"
)

// SentimentInput is the transport-neutral payload accepted by the pipeline,
// decoded from Kafka messages and HTTP bodies alike.
type SentimentInput struct {
	Symbol        string              `json:"symbol" validate:"required,max=32"`
	Components    SentimentComponents `json:"components"`
	Market        *MarketContext      `json:"market,omitempty"`
	News          []NewsItem          `json:"news,omitempty" validate:"max=500"`
	RiskTolerance string              `json:"risk_tolerance,omitempty" default:"moderate" validate:"oneof=conservative moderate aggressive"`
	ObservedAt    time.Time           `json:"observed_at,omitempty"`

	// Observation metadata forwarded to the temporal tracker.
	Relevance         float64 `json:"relevance_score,omitempty" default:"1" validate:"gte=0,lte=1"`
	VolumeImpact      float64 `json:"volume_impact,omitempty" validate:"gte=0"`
	SourceCredibility float64 `json:"source_credibility,omitempty" default:"1" validate:"gte=0,lte=1"`
}

// Normalize folds case-insensitive fields to their canonical form. Decoders call it
// before defaults and validation.
func (in *SentimentInput) Normalize() {
	in.Symbol = strings.TrimSpace(in.Symbol)
	in.RiskTolerance = strings.ToLower(strings.TrimSpace(in.RiskTolerance))
}

// PipelineResult bundles everything produced for one input.
// Note: no transport (json/http) concerns beyond field tags.
type PipelineResult struct {
	Metrics    SentimentMetrics       `json:"metrics"`
	Quality    InputQuality           `json:"quality"`
	Temporal   TemporalAnalysisResult `json:"temporal"`
	Signal     TradingSignal          `json:"signal"`
	SinkErrors map[string]string      `json:"sink_errors,omitempty"`
}

// SignalSummary aggregates retained signals for reporting.
type SignalSummary struct {
	Total             int                      `json:"total"`
	ByType            map[SignalType]int       `json:"by_type"`
	AverageConfidence float64                  `json:"average_confidence"`
	LatestBySymbol    map[string]TradingSignal `json:"latest_by_symbol"`
	Since             time.Time                `json:"since,omitempty"`
}
