package cache

import "time"

// BytesCache stores serialized responses with a TTL. Implementations report a miss
// as ok=false with a nil error.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
