package temporal

import (
	"time"

	"FinSignal/internal/domain/models"
)

// Series is the bounded, time-ordered observation queue of one instrument.
// Callers serialize access and submit observations in non-decreasing time order.
type Series struct {
	obs      []models.SentimentObservation
	capacity int
}

func NewSeries(capacity int) *Series {
	if capacity < 1 {
		capacity = 1
	}
	return &Series{obs: make([]models.SentimentObservation, 0, capacity), capacity: capacity}
}

func (s *Series) Len() int { return len(s.obs) }

// Observations returns a copy, oldest first.
func (s *Series) Observations() []models.SentimentObservation {
	out := make([]models.SentimentObservation, len(s.obs))
	copy(out, s.obs)
	return out
}

func (s *Series) push(o models.SentimentObservation) {
	if len(s.obs) == s.capacity {
		copy(s.obs, s.obs[1:])
		s.obs = s.obs[:len(s.obs)-1]
	}
	s.obs = append(s.obs, o)
}

// pruneBefore drops every observation strictly older than cutoff.
func (s *Series) pruneBefore(cutoff time.Time) {
	i := 0
	for i < len(s.obs) && s.obs[i].Timestamp.Before(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	n := copy(s.obs, s.obs[i:])
	s.obs = s.obs[:n]
}

// since returns the observations with timestamp >= cutoff.
func (s *Series) since(cutoff time.Time) []models.SentimentObservation {
	for i, o := range s.obs {
		if !o.Timestamp.Before(cutoff) {
			out := make([]models.SentimentObservation, len(s.obs)-i)
			copy(out, s.obs[i:])
			return out
		}
	}
	return nil
}
