package models

import "time"

// Canonical component names accepted by the aggregator.
const (
	ComponentNews      = "news_sentiment"
	ComponentSocial    = "social_sentiment"
	ComponentTechnical = "technical_momentum"
	ComponentOptions   = "options_flow"
	ComponentInsider   = "insider_activity"
	ComponentAnalyst   = "analyst_sentiment"
	ComponentEarnings  = "earnings_surprise"
)

// CanonicalComponents lists every recognized component in table order.
var CanonicalComponents = []string{
	ComponentNews,
	ComponentSocial,
	ComponentTechnical,
	ComponentOptions,
	ComponentInsider,
	ComponentAnalyst,
	ComponentEarnings,
}

// SentimentComponents is the raw, unvalidated component map as decoded from JSON.
// Values are expected in [-1, 1]; anything else is sanitized by the scoring engine.
type SentimentComponents map[string]any

// MarketRegime is a coarse market-condition label used to rescale scores.
type MarketRegime string

const (
	RegimeBull     MarketRegime = "bull"
	RegimeBear     MarketRegime = "bear"
	RegimeVolatile MarketRegime = "volatile"
	RegimeStable   MarketRegime = "stable"
	RegimeCrisis   MarketRegime = "crisis"
)

// IsValid reports whether r is one of the known regimes.
func (r MarketRegime) IsValid() bool {
	switch r {
	case RegimeBull, RegimeBear, RegimeVolatile, RegimeStable, RegimeCrisis:
		return true
	}
	return false
}

// MarketContext carries optional market-wide context for one scoring call.
type MarketContext struct {
	Volatility       *float64     `json:"volatility,omitempty"`
	Regime           MarketRegime `json:"regime,omitempty"`
	RegimeConfidence *float64     `json:"regime_confidence,omitempty"`
}

// NewsItem is a single news sentiment reading. Published is kept as received
// so that unparseable timestamps can be skipped instead of rejected upstream.
type NewsItem struct {
	Published string `json:"published"`
	Sentiment any    `json:"sentiment"`
}

// StrengthCategory is the 7-level qualitative tag of a score.
type StrengthCategory string

const (
	StrengthVeryStrongPositive StrengthCategory = "very_strong_positive"
	StrengthStrongPositive     StrengthCategory = "strong_positive"
	StrengthModeratePositive   StrengthCategory = "moderate_positive"
	StrengthNeutral            StrengthCategory = "neutral"
	StrengthModerateNegative   StrengthCategory = "moderate_negative"
	StrengthStrongNegative     StrengthCategory = "strong_negative"
	StrengthVeryStrongNegative StrengthCategory = "very_strong_negative"
)

// SentimentMetrics is the immutable output of one scoring call.
type SentimentMetrics struct {
	Symbol                  string           `json:"symbol"`
	Timestamp               time.Time        `json:"timestamp"`
	RawScore                float64          `json:"raw_score"`
	NormalizedScore         float64          `json:"normalized_score"`
	Strength                StrengthCategory `json:"strength_category"`
	Confidence              float64          `json:"confidence"`
	VolatilityAdjustedScore float64          `json:"volatility_adjusted_score"`
	MarketAdjustedScore     float64          `json:"market_adjusted_score"`
	ZScore                  float64          `json:"z_score"`
	PercentileRank          float64          `json:"percentile_rank"`
}

// QualityKind classifies an input-quality issue.
type QualityKind string

const (
	QualityUnknownComponent QualityKind = "unknown_component"
	QualityNonNumeric       QualityKind = "non_numeric"
	QualityNonFinite        QualityKind = "non_finite"
	QualityClamped          QualityKind = "clamped"
	QualityBadTimestamp     QualityKind = "bad_timestamp"
	QualityUnknownRegime    QualityKind = "unknown_regime"
	QualityBadVolatility    QualityKind = "bad_volatility"
	QualityBadConfidence    QualityKind = "bad_regime_confidence"
)

// QualityIssue records one sanitized input value.
type QualityIssue struct {
	Kind   QualityKind `json:"kind"`
	Field  string      `json:"field"`
	Detail string      `json:"detail,omitempty"`
}

// InputQuality travels next to every scoring result. An empty issue list means clean input.
type InputQuality struct {
	Issues []QualityIssue `json:"issues,omitempty"`
}

// Add appends an issue.
func (q *InputQuality) Add(kind QualityKind, field, detail string) {
	q.Issues = append(q.Issues, QualityIssue{Kind: kind, Field: field, Detail: detail})
}

// Clean reports whether no issue was recorded.
func (q InputQuality) Clean() bool { return len(q.Issues) == 0 }

// SentimentObservation is one timestamped score fed to the temporal tracker.
type SentimentObservation struct {
	Timestamp         time.Time `json:"timestamp"`
	Symbol            string    `json:"symbol"`
	SentimentScore    float64   `json:"sentiment_score"`
	Confidence        float64   `json:"confidence"`
	NewsCount         int       `json:"news_count"`
	RelevanceScore    float64   `json:"relevance_score"`
	VolumeImpact      float64   `json:"volume_impact"`
	SourceCredibility float64   `json:"source_credibility"`
}
