package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FinSignal/internal/handler/ws"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
)

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	retry      *usecase.SinkRetryBuffer
	hub        *ws.Hub
	limiter    *ratelimit.Limiter
	pruneEvery time.Duration
	closers    []closer
}

type Option func(*App)

// WithConsumer runs c for the lifetime of the app. A nil consumer is ignored.
func WithConsumer(c *pkgkafka.Consumer) Option {
	return func(a *App) { a.consumer = c }
}

func WithSinkRetry(b *usecase.SinkRetryBuffer) Option {
	return func(a *App) { a.retry = b }
}

func WithHub(h *ws.Hub) Option {
	return func(a *App) { a.hub = h }
}

// WithLimiter prunes idle rate limit buckets every interval.
func WithLimiter(l *ratelimit.Limiter, interval time.Duration) Option {
	return func(a *App) {
		a.limiter = l
		a.pruneEvery = interval
	}
}

// WithCloser registers fn to run on shutdown. Closers run in reverse registration order.
func WithCloser(name string, fn func() error) Option {
	return func(a *App) { a.closers = append(a.closers, closer{name: name, fn: fn}) }
}

func New(cfg *config.Config, log *applogger.Logger, srv *xhttp.Server, opts ...Option) *App {
	if log == nil {
		log = applogger.Nop()
	}
	a := &App{cfg: cfg, log: log, httpServer: srv, pruneEvery: time.Minute}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts every component and blocks until ctx is done or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.retry != nil {
		a.retry.Start(ctx)
	}

	if a.consumer != nil {
		if err := a.consumer.Start(ctx); err != nil {
			a.log.Error("kafka consumer start failed", applogger.Error(err))
			return errors.Join(err, a.shutdown())
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.cfg.Kafka.InputsTopic))
	}

	if a.limiter != nil && a.pruneEvery > 0 {
		go a.pruneLoop(ctx)
	}

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.log.Error("http server start error", applogger.Error(err))
			return errors.Join(err, a.shutdown())
		}
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) pruneLoop(ctx context.Context) {
	t := time.NewTicker(a.pruneEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.limiter.Prune(5 * a.pruneEvery); n > 0 {
				a.log.Debug("pruned rate limit buckets", applogger.Int("count", n))
			}
		}
	}
}

// shutdown stops intake first (HTTP, Kafka), then the sink retry buffer, and
// closes infrastructure clients last.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")
	var errs []error

	if a.httpServer != nil {
		if err := a.httpServer.Stop(context.Background()); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.retry != nil {
		if err := a.retry.Stop(); err != nil {
			a.log.Warn("sink retry buffer stop error", applogger.Error(err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.log.Warn("close error", applogger.String("component", c.name), applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
