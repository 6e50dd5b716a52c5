package models

// TemporalRegime is the label produced by the temporal tracker. It is distinct
// from MarketRegime: one describes the sentiment path, the other the market.
type TemporalRegime string

const (
	TemporalInsufficientData TemporalRegime = "insufficient_data"
	TemporalVolatile         TemporalRegime = "volatile"
	TemporalBullish          TemporalRegime = "bullish"
	TemporalBearish          TemporalRegime = "bearish"
	TemporalNeutral          TemporalRegime = "neutral"
)

// PatternType names a detected temporal shape.
type PatternType string

const (
	PatternMomentum        PatternType = "momentum"
	PatternReversal        PatternType = "reversal"
	PatternVolatilitySpike PatternType = "volatility_spike"
)

// Pattern is one detected temporal shape.
type Pattern struct {
	Type       PatternType `json:"type"`
	Direction  string      `json:"direction"`
	Strength   float64     `json:"strength"`
	Confidence float64     `json:"confidence"`
}

// SignalRecommendation is a HOLD/BUY/SELL tag with its explanation.
type SignalRecommendation struct {
	Action    SignalAction `json:"action"`
	Strength  float64      `json:"strength"`
	Reasoning string       `json:"reasoning"`
}

// TemporalSignals groups the sub-signals derived from the temporal path.
type TemporalSignals struct {
	Momentum SignalRecommendation `json:"momentum"`
	Reversal SignalRecommendation `json:"reversal"`
	Regime   SignalRecommendation `json:"regime"`
	Overall  SignalRecommendation `json:"overall"`
}

// TemporalAnalysisResult summarizes the evolution of sentiment over the window.
type TemporalAnalysisResult struct {
	Symbol                   string          `json:"symbol"`
	Observations             int             `json:"observations"`
	Trend                    float64         `json:"trend"`
	Velocity                 float64         `json:"velocity"`
	Acceleration             float64         `json:"acceleration"`
	Volatility               float64         `json:"volatility"`
	WeightedCurrentSentiment float64         `json:"weighted_current_sentiment"`
	Regime                   TemporalRegime  `json:"regime"`
	RegimeStability          float64         `json:"regime_stability"`
	RegimeDurationHours      float64         `json:"regime_duration_hours"`
	Patterns                 []Pattern       `json:"patterns"`
	Confidence               float64         `json:"temporal_confidence"`
	Signals                  TemporalSignals `json:"signals"`
}
