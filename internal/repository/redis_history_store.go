package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "FinSignal/internal/domain/repository"
)

// RedisHistoryStore keeps one JSON array of normalizer samples per symbol.
type RedisHistoryStore struct {
	cli    redis.Cmdable
	prefix string
	ttl    time.Duration
}

var _ domrepo.HistoryStore = (*RedisHistoryStore)(nil)

func NewRedisHistoryStore(cli redis.Cmdable, prefix string, ttl time.Duration) *RedisHistoryStore {
	return &RedisHistoryStore{cli: cli, prefix: prefix, ttl: ttl}
}

func (s *RedisHistoryStore) key(symbol string) string { return s.prefix + symbol }

// Load returns nil, nil when no snapshot exists.
func (s *RedisHistoryStore) Load(ctx context.Context, symbol string) ([]float64, error) {
	b, err := s.cli.Get(ctx, s.key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", symbol, err)
	}
	var values []float64
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", symbol, err)
	}
	return values, nil
}

func (s *RedisHistoryStore) Save(ctx context.Context, symbol string, values []float64) error {
	b, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode history %s: %w", symbol, err)
	}
	if err := s.cli.Set(ctx, s.key(symbol), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save history %s: %w", symbol, err)
	}
	return nil
}
