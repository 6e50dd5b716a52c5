package models

import (
	"strings"
	"time"
)

// SignalAction is the 3-level action used by temporal sub-signals.
type SignalAction string

const (
	ActionHold SignalAction = "HOLD"
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
)

// SignalType is the final 5-level trading signal.
type SignalType string

const (
	SignalStrongBuy  SignalType = "STRONG_BUY"
	SignalBuy        SignalType = "BUY"
	SignalHold       SignalType = "HOLD"
	SignalSell       SignalType = "SELL"
	SignalStrongSell SignalType = "STRONG_SELL"
)

// Action collapses the signal onto its direction.
func (s SignalType) Action() SignalAction {
	switch s {
	case SignalStrongBuy, SignalBuy:
		return ActionBuy
	case SignalStrongSell, SignalSell:
		return ActionSell
	case SignalHold:
		return ActionHold
	}
	return ActionHold
}

// SignalStrength sub-classifies a BUY or SELL decision.
type SignalStrength string

const (
	StrengthStrong   SignalStrength = "STRONG"
	StrengthModerate SignalStrength = "MODERATE"
	StrengthWeak     SignalStrength = "WEAK"
)

// RiskTolerance selects the decision threshold set.
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "conservative"
	RiskModerate     RiskTolerance = "moderate"
	RiskAggressive   RiskTolerance = "aggressive"
)

// IsValid reports whether r is a known tolerance.
func (r RiskTolerance) IsValid() bool {
	switch r {
	case RiskConservative, RiskModerate, RiskAggressive:
		return true
	}
	return false
}

// NormalizeRiskTolerance converts raw input to a tolerance, falling back to moderate.
func NormalizeRiskTolerance(s string) RiskTolerance {
	rt := RiskTolerance(strings.ToLower(strings.TrimSpace(s)))
	if rt.IsValid() {
		return rt
	}
	return RiskModerate
}

// TradingSignal is the final decision for one instrument. It is never mutated after construction.
type TradingSignal struct {
	ID             string         `json:"id"`
	Symbol         string         `json:"symbol"`
	Signal         SignalType     `json:"signal"`
	Strength       SignalStrength `json:"strength,omitempty"`
	Confidence     float64        `json:"confidence"`
	Timestamp      time.Time      `json:"timestamp"`
	Reasoning      string         `json:"reasoning"`
	SupportingData map[string]any `json:"supporting_data"`
}
