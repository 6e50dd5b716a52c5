package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"FinSignal/internal/domain/models"
)

func sig(id, symbol string, t models.SignalType, conf float64, at time.Time) models.TradingSignal {
	return models.TradingSignal{ID: id, Symbol: symbol, Signal: t, Confidence: conf, Timestamp: at}
}

func ids(ss []models.TradingSignal) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.ID
	}
	return out
}

func TestSignalHistory_RecentNewestFirstAndFiltered(t *testing.T) {
	h := NewSignalHistory(10)
	h.Append(sig("1", "AAPL", models.SignalBuy, 0.7, baseTime))
	h.Append(sig("2", "MSFT", models.SignalHold, 0.3, baseTime.Add(time.Minute)))
	h.Append(sig("3", "AAPL", models.SignalSell, 0.6, baseTime.Add(2*time.Minute)))

	assert.Equal(t, []string{"3", "2", "1"}, ids(h.Recent("", 10)))
	assert.Equal(t, []string{"3", "1"}, ids(h.Recent("AAPL", 10)))
	assert.Equal(t, []string{"3"}, ids(h.Recent("AAPL", 1)))
	assert.Empty(t, h.Recent("TSLA", 5))
}

func TestSignalHistory_Wraps(t *testing.T) {
	h := NewSignalHistory(3)
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		h.Append(sig(id, "X", models.SignalHold, 0.5, baseTime.Add(time.Duration(i)*time.Minute)))
	}
	assert.Equal(t, []string{"e", "d", "c"}, ids(h.Recent("", 10)))

	sum := h.Summary()
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, baseTime.Add(2*time.Minute), sum.Since)
}

func TestSignalHistory_Summary(t *testing.T) {
	h := NewSignalHistory(10)
	assert.Equal(t, 0, h.Summary().Total)

	h.Append(sig("1", "AAPL", models.SignalBuy, 0.8, baseTime))
	h.Append(sig("2", "AAPL", models.SignalStrongBuy, 0.9, baseTime.Add(time.Minute)))
	h.Append(sig("3", "MSFT", models.SignalBuy, 0.4, baseTime.Add(2*time.Minute)))

	sum := h.Summary()
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, map[models.SignalType]int{models.SignalBuy: 2, models.SignalStrongBuy: 1}, sum.ByType)
	assert.InDelta(t, 0.7, sum.AverageConfidence, 1e-12)
	assert.Equal(t, "2", sum.LatestBySymbol["AAPL"].ID)
	assert.Equal(t, "3", sum.LatestBySymbol["MSFT"].ID)
	assert.Equal(t, baseTime, sum.Since)
}
