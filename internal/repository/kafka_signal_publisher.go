package repository

import (
	"context"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	pkgkafka "FinSignal/pkg/kafka"
)

// KafkaSignalPublisher writes each signal keyed by symbol so one instrument's signals
// stay ordered on one partition.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, s models.TradingSignal) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), s)
}

// Close leaves the producer open; it is shared with the log collector.
func (p *KafkaSignalPublisher) Close() error { return nil }
