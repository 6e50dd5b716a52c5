package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"FinSignal/internal/domain/models"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
)

var inputValidator = validator.New()

// DecodeInput parses a JSON SentimentInput, applies tag defaults and validates it.
func DecodeInput(b []byte) (models.SentimentInput, error) {
	var in models.SentimentInput
	if err := json.Unmarshal(b, &in); err != nil {
		return in, fmt.Errorf("decode input: %w", err)
	}
	in.Normalize()
	if err := defaults.Set(&in); err != nil {
		return in, fmt.Errorf("input defaults: %w", err)
	}
	if err := inputValidator.Struct(&in); err != nil {
		return in, fmt.Errorf("validate input: %w", err)
	}
	return in, nil
}

// KafkaInputsHandler feeds sentiment inputs from Kafka into the pipeline.
type KafkaInputsHandler struct {
	topic    string
	pipeline *SignalPipeline
	log      *applogger.Logger
}

var _ pkgkafka.MessageHandler = (*KafkaInputsHandler)(nil)

func NewKafkaInputsHandler(topic string, pipeline *SignalPipeline, log *applogger.Logger) *KafkaInputsHandler {
	if log == nil {
		log = applogger.Nop()
	}
	return &KafkaInputsHandler{topic: topic, pipeline: pipeline, log: log}
}

func (h *KafkaInputsHandler) Topic() string { return h.topic }

// Handle rejects undecodable payloads permanently; they go to the DLQ without retries.
// Sink failures are not returned, so a slow store never causes the input to be rescored.
func (h *KafkaInputsHandler) Handle(ctx context.Context, b []byte) error {
	in, err := DecodeInput(b)
	if err != nil {
		h.pipeline.recordError("consumer_decode")
		return pkgkafka.Permanent(err)
	}
	if _, err := h.pipeline.Process(ctx, in); err != nil {
		return pkgkafka.Permanent(err)
	}
	return nil
}
