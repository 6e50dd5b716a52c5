package repository

import (
	"context"
	"time"

	"FinSignal/internal/domain/models"
)

// SignalStore persists scoring outputs for audit and dashboards.
type SignalStore interface {
	StoreMetrics(ctx context.Context, m models.SentimentMetrics) error
	StoreSignal(ctx context.Context, s models.TradingSignal) error
	QuerySignals(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.TradingSignal, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher forwards emitted signals to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, s models.TradingSignal) error
	Close() error
}

// HistoryStore snapshots normalizer history so a restart does not reset z-scores.
type HistoryStore interface {
	Load(ctx context.Context, symbol string) ([]float64, error)
	Save(ctx context.Context, symbol string, values []float64) error
}

// Broadcaster pushes signals to live subscribers.
type Broadcaster interface {
	Broadcast(s models.TradingSignal)
}

type Metrics interface {
	RecordSignal(symbol string, signal models.SignalType)
	RecordError(kind string)
	RecordScore(symbol string, normalized float64)
	RecordLatency(op string, seconds float64)
	RecordQualityIssue(kind models.QualityKind)
}
