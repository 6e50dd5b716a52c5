package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	domrepo "FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"
)

type pendingWrite struct {
	name     string
	write    func(ctx context.Context) error
	attempts int
}

// SinkRetryBuffer holds failed sink writes and retries them in the background with
// linear backoff. When the buffer is full new failures are dropped and counted.
type SinkRetryBuffer struct {
	ch         chan pendingWrite
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	metrics    domrepo.Metrics
	log        *applogger.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type RetryOption func(*SinkRetryBuffer)

func WithRetryLimit(n int) RetryOption {
	return func(b *SinkRetryBuffer) {
		if n >= 0 {
			b.maxRetries = n
		}
	}
}

func WithRetryBackoff(d time.Duration) RetryOption {
	return func(b *SinkRetryBuffer) {
		if d > 0 {
			b.backoff = d
		}
	}
}

func WithRetryMetrics(m domrepo.Metrics) RetryOption {
	return func(b *SinkRetryBuffer) { b.metrics = m }
}

func NewSinkRetryBuffer(size int, log *applogger.Logger, opts ...RetryOption) *SinkRetryBuffer {
	if size <= 0 {
		size = 1000
	}
	if log == nil {
		log = applogger.Nop()
	}
	b := &SinkRetryBuffer{
		ch:         make(chan pendingWrite, size),
		maxRetries: 3,
		backoff:    200 * time.Millisecond,
		timeout:    5 * time.Second,
		log:        log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *SinkRetryBuffer) recordError(kind string) {
	if b.metrics != nil {
		b.metrics.RecordError(kind)
	}
}

// Enqueue schedules write for retry. It never blocks; false means the buffer was full.
func (b *SinkRetryBuffer) Enqueue(name string, write func(ctx context.Context) error) bool {
	select {
	case b.ch <- pendingWrite{name: name, write: write}:
		return true
	default:
		b.recordError("sink_buffer_full")
		return false
	}
}

// Pending reports buffered writes.
func (b *SinkRetryBuffer) Pending() int { return len(b.ch) }

func (b *SinkRetryBuffer) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	b.started = true
	ctx, b.cancel = context.WithCancel(ctx)
	b.done = make(chan struct{})
	go b.loop(ctx)
}

func (b *SinkRetryBuffer) loop(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case pw := <-b.ch:
			pw.attempts++
			wctx, cancel := context.WithTimeout(ctx, b.timeout)
			err := pw.write(wctx)
			cancel()
			if err == nil {
				continue
			}
			if pw.attempts >= b.maxRetries {
				b.recordError("sink_retry_exhausted")
				b.log.Error("sink write dropped after retries",
					applogger.String("sink", pw.name),
					applogger.Int("attempts", pw.attempts),
					applogger.Error(err))
				continue
			}
			select {
			case <-time.After(b.backoff * time.Duration(pw.attempts)):
			case <-ctx.Done():
				return
			}
			select {
			case b.ch <- pw:
			default:
				b.recordError("sink_buffer_full")
			}
		}
	}
}

// Stop halts retrying; buffered writes that were not attempted are discarded.
func (b *SinkRetryBuffer) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	b.started = false
	b.cancel()
	<-b.done
	if n := len(b.ch); n > 0 {
		return fmt.Errorf("sink retry buffer stopped with %d pending writes", n)
	}
	return nil
}
