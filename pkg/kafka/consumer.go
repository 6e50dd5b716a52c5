package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	applogger "FinSignal/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, payload []byte) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Malformed payloads should be wrapped so
// they go straight to the DLQ.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was wrapped by Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Consumer reads registered topics and dispatches messages to a worker pool. Messages
// are sharded by partition so one partition is always handled by one worker, in order.
type Consumer struct {
	cfg       ConsumerConfig
	log       *applogger.Logger
	handlers  map[string]MessageHandler
	readers   map[string]messageReader
	newReader func(topic string) messageReader
	dlq       messageWriter
	hook      ConsumerHook
	metrics   *clientMetrics
	shards    []chan kafka.Message

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewConsumer(log *applogger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := ConsumerConfig{
		GroupID:     "finsignal",
		WorkerCount: 1,
		BufferSize:  16,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := newConsumer(cfg, log)
	c.newReader = func(topic string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    topic,
			GroupID:  cfg.GroupID,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		})
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Topic: cfg.DLQTopic, Balancer: &kafka.Hash{}}
	}
	return c, nil
}

func newConsumer(cfg ConsumerConfig, log *applogger.Logger) *Consumer {
	if log == nil {
		log = applogger.Nop()
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	return &Consumer{
		cfg:      cfg,
		log:      log,
		handlers: make(map[string]MessageHandler),
		hook:     HookChain{},
		metrics:  kafkaMetrics(),
	}
}

// RegisterHandler registers handler for its topic. A second handler for the same
// topic is ignored.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// SetHook installs hooks; call before Start.
func (c *Consumer) SetHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start launches one fetch loop per registered topic plus the worker pool.
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}
	ctx, c.cancel = context.WithCancel(ctx)

	c.shards = make([]chan kafka.Message, c.cfg.WorkerCount)
	for i := range c.shards {
		c.shards[i] = make(chan kafka.Message, c.cfg.BufferSize)
	}

	var workers sync.WaitGroup
	for i := range c.shards {
		workers.Add(1)
		go func(in <-chan kafka.Message) {
			defer workers.Done()
			c.work(ctx, in)
		}(c.shards[i])
	}

	c.readers = make(map[string]messageReader, len(c.handlers))
	for topic := range c.handlers {
		c.readers[topic] = c.newReader(topic)
	}

	var fetchers sync.WaitGroup
	for topic, r := range c.readers {
		fetchers.Add(1)
		go func(topic string, r messageReader) {
			defer fetchers.Done()
			c.fetch(ctx, topic, r)
		}(topic, r)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fetchers.Wait()
		for _, ch := range c.shards {
			close(ch)
		}
		workers.Wait()
	}()

	c.log.Info("kafka consumer started",
		applogger.Int("topics", len(c.handlers)),
		applogger.Int("workers", c.cfg.WorkerCount))
	return nil
}

func (c *Consumer) fetch(ctx context.Context, topic string, r messageReader) {
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			if sleepCtx(ctx, c.cfg.BackoffMax) != nil {
				return
			}
			continue
		}
		if msg.Topic == "" {
			msg.Topic = topic
		}
		shard := c.shards[msg.Partition%len(c.shards)]
		select {
		case shard <- msg:
			c.metrics.queue.WithLabelValues(topic).Inc()
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) work(ctx context.Context, in <-chan kafka.Message) {
	for msg := range in {
		c.metrics.queue.WithLabelValues(msg.Topic).Dec()
		if ctx.Err() != nil {
			continue
		}
		c.process(ctx, msg)
		if err := c.commit(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Error("kafka commit failed",
				applogger.String("topic", msg.Topic),
				applogger.Int64("offset", msg.Offset),
				applogger.Error(err))
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) error {
	r, ok := c.readers[msg.Topic]
	if !ok {
		return nil
	}
	return r.CommitMessages(ctx, msg)
}

// process runs hooks, the handler with retries and DLQ routing. The returned error is
// the handler's final error after retries.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	h, ok := c.handlers[msg.Topic]
	if !ok {
		return fmt.Errorf("no handler for topic %s", msg.Topic)
	}

	start := time.Now()
	hctx, err := c.hook.Before(ctx, msg)
	if err == nil {
		err = c.handleWithRetry(hctx, h, msg.Value)
	} else {
		err = Permanent(err)
	}
	elapsed := time.Since(start)
	c.hook.After(hctx, msg, err, elapsed)
	c.metrics.handle.WithLabelValues(msg.Topic).Observe(elapsed.Seconds())

	if err == nil {
		c.metrics.handled.WithLabelValues(msg.Topic, "ok").Inc()
		return nil
	}
	c.metrics.handled.WithLabelValues(msg.Topic, "error").Inc()
	if dlqErr := c.toDLQ(ctx, msg, err); dlqErr != nil {
		c.log.Error("kafka dlq write failed",
			applogger.String("topic", msg.Topic),
			applogger.Int64("offset", msg.Offset),
			applogger.Error(dlqErr))
	}
	return err
}

func (c *Consumer) handleWithRetry(ctx context.Context, h MessageHandler, payload []byte) error {
	var err error
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		if err = h.Handle(ctx, payload); err == nil || IsPermanent(err) {
			return err
		}
		if attempt == c.cfg.RetryMax {
			break
		}
		if serr := sleepCtx(ctx, backoff(attempt, c.cfg.BackoffMin, c.cfg.BackoffMax)); serr != nil {
			return err
		}
	}
	return err
}

func (c *Consumer) toDLQ(ctx context.Context, msg kafka.Message, cause error) error {
	if c.dlq == nil {
		return nil
	}
	out := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(append([]kafka.Header(nil), msg.Headers...),
			kafka.Header{Key: "x-error", Value: []byte(cause.Error())},
			kafka.Header{Key: "x-source-topic", Value: []byte(msg.Topic)},
		),
	}
	if err := c.dlq.WriteMessages(ctx, out); err != nil {
		return err
	}
	c.metrics.dlq.WithLabelValues(msg.Topic).Inc()
	return nil
}

// Stop cancels fetching, drains workers and closes readers.
func (c *Consumer) Stop() error {
	var errs []error
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		c.wg.Wait()
		for _, r := range c.readers {
			if err := r.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// backoff doubles from lo per attempt, capped at hi, with up to 20% jitter removed.
func backoff(attempt int, lo, hi time.Duration) time.Duration {
	if lo <= 0 {
		return 0
	}
	d := lo
	for i := 0; i < attempt && d < hi; i++ {
		d *= 2
	}
	if hi > 0 && d > hi {
		d = hi
	}
	jitter := time.Duration(rand.Int63n(int64(d)/5 + 1))
	return d - jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
