package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisQueue pushes messages onto one capped Redis list per message type. It is the
// warnings sink when Kafka is disabled: operators tail the list with LRANGE.
type RedisQueue struct {
	client    redis.Cmdable
	keyPrefix string
	maxLen    int64
	now       func() time.Time
}

var _ QueueService = (*RedisQueue)(nil)

type RedisQueueOption func(*RedisQueue)

func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) { r.keyPrefix = prefix }
}

// WithMaxLen caps every list at n entries, dropping the oldest. Zero disables trimming.
func WithMaxLen(n int64) RedisQueueOption {
	return func(r *RedisQueue) { r.maxLen = n }
}

func NewRedisPublisher(client redis.Cmdable, opts ...RedisQueueOption) *RedisQueue {
	q := &RedisQueue{
		client:    client,
		keyPrefix: "finsignal:queue",
		maxLen:    10000,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (r *RedisQueue) key(msgType string) string { return r.keyPrefix + ":" + msgType }

// Enqueue adds a message at the head of the list for msgType.
func (r *RedisQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	if msgType == "" {
		return errors.New("message type is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	data, err := json.Marshal(Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := r.key(msgType)
	if r.maxLen <= 0 {
		if err := r.client.LPush(ctx, key, data).Err(); err != nil {
			return fmt.Errorf("lpush: %w", err)
		}
		return nil
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, r.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

// PublishMessage satisfies the log collector publisher.
func (r *RedisQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	return r.Enqueue(ctx, msgType, payload)
}

// Recent returns up to n messages of msgType, newest first.
func (r *RedisQueue) Recent(ctx context.Context, msgType string, n int64) ([]Message, error) {
	if n <= 0 {
		return nil, nil
	}
	vals, err := r.client.LRange(ctx, r.key(msgType), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange: %w", err)
	}
	out := make([]Message, 0, len(vals))
	for _, v := range vals {
		var m Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}
