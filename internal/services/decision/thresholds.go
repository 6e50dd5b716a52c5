package decision

import (
	"fmt"

	"FinSignal/internal/domain/models"
)

// Thresholds is the BUY/SELL gate for one risk tolerance.
type Thresholds struct {
	BuyScore      float64 `json:"buy_score" yaml:"buy_score"`
	SellScore     float64 `json:"sell_score" yaml:"sell_score"`
	ZBuy          float64 `json:"z_buy" yaml:"z_buy"`
	ZSell         float64 `json:"z_sell" yaml:"z_sell"`
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

func (t Thresholds) validate() error {
	if t.SellScore >= t.BuyScore {
		return fmt.Errorf("sell score %v must be below buy score %v", t.SellScore, t.BuyScore)
	}
	if t.BuyScore < 0 || t.BuyScore > 100 || t.SellScore < 0 || t.SellScore > 100 {
		return fmt.Errorf("scores must lie in [0, 100]")
	}
	if t.ZSell > t.ZBuy {
		return fmt.Errorf("z sell %v above z buy %v", t.ZSell, t.ZBuy)
	}
	if t.MinConfidence < 0 || t.MinConfidence > 1 {
		return fmt.Errorf("min confidence %v outside [0, 1]", t.MinConfidence)
	}
	return nil
}

// ThresholdTable holds one threshold set per tolerance. It is built once from
// configuration and handed to the Decider.
type ThresholdTable struct {
	Conservative Thresholds `yaml:"conservative"`
	Moderate     Thresholds `yaml:"moderate"`
	Aggressive   Thresholds `yaml:"aggressive"`
}

func DefaultThresholds() ThresholdTable {
	return ThresholdTable{
		Conservative: Thresholds{BuyScore: 75, SellScore: 25, ZBuy: 1.5, ZSell: -1.5, MinConfidence: 0.70},
		Moderate:     Thresholds{BuyScore: 65, SellScore: 35, ZBuy: 1.0, ZSell: -1.0, MinConfidence: 0.60},
		Aggressive:   Thresholds{BuyScore: 58, SellScore: 42, ZBuy: 0.5, ZSell: -0.5, MinConfidence: 0.50},
	}
}

func (t ThresholdTable) Validate() error {
	for _, rt := range []models.RiskTolerance{models.RiskConservative, models.RiskModerate, models.RiskAggressive} {
		if err := t.For(rt).validate(); err != nil {
			return fmt.Errorf("%s thresholds: %w", rt, err)
		}
	}
	return nil
}

// For returns the thresholds of rt. Callers resolve unknown tolerances first.
func (t ThresholdTable) For(rt models.RiskTolerance) Thresholds {
	switch rt {
	case models.RiskConservative:
		return t.Conservative
	case models.RiskAggressive:
		return t.Aggressive
	case models.RiskModerate:
		return t.Moderate
	}
	return t.Moderate
}
