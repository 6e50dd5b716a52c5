package usecase

import (
	"sync"

	"FinSignal/internal/domain/models"
)

// SignalHistory retains the most recent signals across all instruments.
type SignalHistory struct {
	mu   sync.RWMutex
	buf  []models.TradingSignal
	next int
	full bool
}

func NewSignalHistory(max int) *SignalHistory {
	if max <= 0 {
		max = 1000
	}
	return &SignalHistory{buf: make([]models.TradingSignal, max)}
}

func (h *SignalHistory) Append(s models.TradingSignal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.next] = s
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.full = true
	}
}

// newestFirst must be called with the lock held.
func (h *SignalHistory) newestFirst() []models.TradingSignal {
	n := h.next
	if h.full {
		n = len(h.buf)
	}
	out := make([]models.TradingSignal, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, h.buf[(h.next-i+len(h.buf))%len(h.buf)])
	}
	return out
}

// Recent returns up to n signals, newest first. An empty symbol matches all.
func (h *SignalHistory) Recent(symbol string, n int) []models.TradingSignal {
	h.mu.RLock()
	all := h.newestFirst()
	h.mu.RUnlock()

	out := make([]models.TradingSignal, 0, n)
	for _, s := range all {
		if len(out) >= n {
			break
		}
		if symbol == "" || s.Symbol == symbol {
			out = append(out, s)
		}
	}
	return out
}

func (h *SignalHistory) Summary() models.SignalSummary {
	h.mu.RLock()
	all := h.newestFirst()
	h.mu.RUnlock()

	sum := models.SignalSummary{
		Total:          len(all),
		ByType:         make(map[models.SignalType]int),
		LatestBySymbol: make(map[string]models.TradingSignal),
	}
	if len(all) == 0 {
		return sum
	}
	conf := 0.0
	for _, s := range all {
		sum.ByType[s.Signal]++
		conf += s.Confidence
		if _, seen := sum.LatestBySymbol[s.Symbol]; !seen {
			sum.LatestBySymbol[s.Symbol] = s
		}
	}
	sum.AverageConfidence = conf / float64(len(all))
	sum.Since = all[len(all)-1].Timestamp
	return sum
}
