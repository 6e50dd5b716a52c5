package decision

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/logger"
)

// Decider applies a ThresholdTable to scoring metrics. It is safe for concurrent use.
type Decider struct {
	table ThresholdTable
	log   *logger.Logger
	newID func() string
}

type Option func(*Decider)

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(f func() string) Option {
	return func(d *Decider) { d.newID = f }
}

func NewDecider(table ThresholdTable, log *logger.Logger, opts ...Option) *Decider {
	if log == nil {
		log = logger.Nop()
	}
	d := &Decider{table: table, log: log, newID: uuid.NewString}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Decider) Table() ThresholdTable { return d.table }

// Decide turns metrics into a TradingSignal. temporal may be nil; when its overall
// action opposes the decision the strength drops one tier.
func (d *Decider) Decide(m models.SentimentMetrics, tolerance models.RiskTolerance, temporal *models.TemporalAnalysisResult) models.TradingSignal {
	if !tolerance.IsValid() {
		d.log.Warn("unknown risk tolerance, using moderate",
			logger.String("symbol", m.Symbol),
			logger.String("risk_tolerance", string(tolerance)),
		)
		tolerance = models.RiskModerate
	}
	th := d.table.For(tolerance)

	action := models.ActionHold
	switch {
	case m.NormalizedScore >= th.BuyScore && m.ZScore >= th.ZBuy && m.Confidence >= th.MinConfidence:
		action = models.ActionBuy
	case m.NormalizedScore <= th.SellScore && m.ZScore <= th.ZSell && m.Confidence >= th.MinConfidence:
		action = models.ActionSell
	}

	reasons := []string{
		headline(action, m, th, tolerance),
		percentileText(m.PercentileRank),
		zText(m.ZScore),
		confidenceText(m.Confidence),
	}

	var strength models.SignalStrength
	if action != models.ActionHold {
		strength = tier(action, m.Strength)
		if temporal != nil {
			switch temporal.Signals.Overall.Action {
			case action:
				reasons = append(reasons, "temporal trend confirms")
			case models.ActionHold:
			default:
				strength = downgrade(strength)
				reasons = append(reasons, "temporal trend disagrees, strength reduced")
			}
		}
	}

	at := m.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}

	return models.TradingSignal{
		ID:             d.newID(),
		Symbol:         m.Symbol,
		Signal:         signalType(action, strength),
		Strength:       strength,
		Confidence:     m.Confidence,
		Timestamp:      at,
		Reasoning:      strings.Join(reasons, "; "),
		SupportingData: supportingData(m, th, tolerance, temporal),
	}
}

func tier(action models.SignalAction, c models.StrengthCategory) models.SignalStrength {
	extreme, strong := models.StrengthVeryStrongPositive, models.StrengthStrongPositive
	if action == models.ActionSell {
		extreme, strong = models.StrengthVeryStrongNegative, models.StrengthStrongNegative
	}
	switch c {
	case extreme:
		return models.StrengthStrong
	case strong:
		return models.StrengthModerate
	default:
		return models.StrengthWeak
	}
}

func downgrade(s models.SignalStrength) models.SignalStrength {
	switch s {
	case models.StrengthStrong:
		return models.StrengthModerate
	case models.StrengthModerate, models.StrengthWeak:
		return models.StrengthWeak
	}
	return models.StrengthWeak
}

func signalType(action models.SignalAction, s models.SignalStrength) models.SignalType {
	switch action {
	case models.ActionBuy:
		if s == models.StrengthStrong {
			return models.SignalStrongBuy
		}
		return models.SignalBuy
	case models.ActionSell:
		if s == models.StrengthStrong {
			return models.SignalStrongSell
		}
		return models.SignalSell
	case models.ActionHold:
		return models.SignalHold
	}
	return models.SignalHold
}

func supportingData(m models.SentimentMetrics, th Thresholds, rt models.RiskTolerance, temporal *models.TemporalAnalysisResult) map[string]any {
	data := map[string]any{
		"raw_score":                 m.RawScore,
		"normalized_score":          m.NormalizedScore,
		"z_score":                   m.ZScore,
		"percentile_rank":           m.PercentileRank,
		"confidence":                m.Confidence,
		"strength_category":         string(m.Strength),
		"volatility_adjusted_score": m.VolatilityAdjustedScore,
		"market_adjusted_score":     m.MarketAdjustedScore,
		"risk_tolerance":            string(rt),
		"thresholds": map[string]float64{
			"buy_score":      th.BuyScore,
			"sell_score":     th.SellScore,
			"z_buy":          th.ZBuy,
			"z_sell":         th.ZSell,
			"min_confidence": th.MinConfidence,
		},
	}
	if temporal != nil {
		data["temporal"] = map[string]any{
			"regime":         string(temporal.Regime),
			"trend":          temporal.Trend,
			"velocity":       temporal.Velocity,
			"confidence":     temporal.Confidence,
			"overall_action": string(temporal.Signals.Overall.Action),
			"observations":   temporal.Observations,
		}
	}
	return data
}
