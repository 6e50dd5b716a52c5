package scoring

import (
	"FinSignal/internal/services/features"
)

// History is the bounded per-instrument record of past market-adjusted scores,
// oldest first. It is not safe for concurrent use; the owner serializes access.
type History struct {
	buf   []float64
	start int
	size  int
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]float64, capacity)}
}

func (h *History) Len() int { return h.size }

func (h *History) Cap() int { return len(h.buf) }

// Append adds v, evicting the oldest entry when full.
func (h *History) Append(v float64) {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = v
		h.size++
		return
	}
	h.buf[h.start] = v
	h.start = (h.start + 1) % len(h.buf)
}

// Values returns a copy, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Last returns a copy of the newest n entries (fewer if the history is shorter).
func (h *History) Last(n int) []float64 {
	if n > h.size {
		n = h.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	off := h.size - n
	for i := 0; i < n; i++ {
		out[i] = h.buf[(h.start+off+i)%len(h.buf)]
	}
	return out
}

// Restore replaces the contents with values (oldest first), keeping only the newest
// Cap() finite entries. Used for warm start from a snapshot.
func (h *History) Restore(values []float64) {
	h.start, h.size = 0, 0
	for _, v := range values {
		if features.Finite(v) {
			h.Append(features.Clamp(v, -1, 1))
		}
	}
}

// Normalization is the statistical position of one score against its history.
type Normalization struct {
	Normalized float64
	ZScore     float64
	Percentile float64
}

// Normalize computes the statistics of score against h and then appends score to h.
func Normalize(score float64, h *History, minSamples int) Normalization {
	n := Normalization{
		Normalized: features.Clamp((score+1)/2*100, 0, 100),
		Percentile: 50,
	}
	if h.Len() >= minSamples && h.Len() > 0 {
		vals := h.Values()
		if sd := features.StdDev(vals); sd > 0 {
			n.ZScore = (score - features.Mean(vals)) / sd
		}
		n.Percentile = features.Clamp(100*float64(features.CountBelow(vals, score))/float64(len(vals)), 0, 100)
	}
	h.Append(score)
	return n
}
