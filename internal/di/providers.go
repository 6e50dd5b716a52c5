package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/handler/api"
	"FinSignal/internal/handler/ws"
	internalrepo "FinSignal/internal/repository"
	icache "FinSignal/internal/service/cache"
	svcmetrics "FinSignal/internal/service/metrics"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/services/decision"
	"FinSignal/internal/services/marketctx"
	"FinSignal/internal/services/scoring"
	"FinSignal/internal/services/temporal"
	"FinSignal/internal/usecase"
	pkgch "FinSignal/pkg/clickhouse"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	"FinSignal/pkg/http/middleware"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
	"FinSignal/pkg/metrics"
	"FinSignal/pkg/queue"
	"FinSignal/pkg/server"
)

// ProvideRegistry creates the Prometheus registry every collector registers on.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pkgkafka.SetMetricsRegisterer(reg)
	return reg
}

// ProvideMetrics creates the pipeline metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

func ProvideHTTPCollectors(reg *prometheus.Registry) *svcmetrics.HTTPCollectors {
	return svcmetrics.NewHTTPCollectors(reg)
}

// ProvideRedisClient returns nil when Redis is disabled.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	cli := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	return cli, nil
}

// ProvideKafkaProducer returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, _ *prometheus.Registry) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// WarningsPublisher is where aggregated warnings go: Kafka when enabled, else a
// capped Redis list, else nowhere.
type WarningsPublisher applogger.Publisher

func ProvideWarningsPublisher(producer *pkgkafka.Producer, rdb *redis.Client, cfg *config.Config) WarningsPublisher {
	switch {
	case producer != nil:
		return producer
	case rdb != nil:
		return queue.NewRedisPublisher(rdb,
			queue.WithKeyPrefix(cfg.Redis.QueuePrefix),
			queue.WithMaxLen(cfg.Redis.QueueMaxLen),
		)
	}
	return nil
}

// ProvideLogger builds the application logger and attaches the warnings collector.
func ProvideLogger(cfg *config.Config, pub WarningsPublisher) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Collector.Enabled && pub != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.FlushInterval,
			CountThreshold: cfg.Log.Collector.CountThreshold,
			Topic:          cfg.Kafka.WarningsTopic,
			Publisher:      pub,
		})
	}
	return l, nil
}

// ProvideClickHouseClient returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, pkgch.SignalSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

func ProvideSignalStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) domrepo.SignalStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHSignalStore(ch, internalrepo.BreakerSettings{
		MaxFailures: cfg.ClickHouse.Breaker.MaxFailures,
		OpenTimeout: cfg.ClickHouse.Breaker.OpenTimeout,
	}, l)
}

func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic)
}

func ProvideHistoryStore(rdb *redis.Client, cfg *config.Config) domrepo.HistoryStore {
	if rdb == nil {
		return nil
	}
	return internalrepo.NewRedisHistoryStore(rdb, cfg.Redis.KeyPrefix, cfg.Redis.SnapshotTTL)
}

// ProvideTemporalCache shares cached temporal responses across replicas when Redis is available.
func ProvideTemporalCache(rdb *redis.Client) icache.BytesCache {
	if rdb == nil {
		return icache.NewTTLCache()
	}
	return icache.NewRedisCache(rdb, "finsignal:temporal:")
}

func ProvideMarketContext(cfg *config.Config) domsvc.MarketContextProvider {
	if !cfg.MarketContext.Enabled {
		return nil
	}
	return marketctx.NewHTTPProvider(cfg)
}

// ProvideCalibration maps the scoring section onto a validated calibration.
func ProvideCalibration(cfg *config.Config) (scoring.Calibration, error) {
	sc := cfg.Scoring
	opts := []scoring.CalibrationOption{
		scoring.WithHalfLifeDays(sc.HalfLifeDays),
		scoring.WithDecayGrace(sc.DecayGrace),
		scoring.WithVolatilityThresholds(sc.VolatilityLow, sc.VolatilityHigh),
		scoring.WithVolatilityRange(sc.MultiplierMin, sc.MultiplierMax),
		scoring.WithLookback(sc.LookbackDays),
		scoring.WithMinSamples(sc.MinSamples),
	}
	if len(sc.Weights) > 0 {
		opts = append(opts, scoring.WithWeights(sc.Weights))
	}
	for regime, m := range sc.RegimeMultipliers {
		opts = append(opts, scoring.WithRegimeMultiplier(models.MarketRegime(regime), m))
	}
	cal, err := scoring.NewCalibration(opts...)
	if err != nil {
		return scoring.Calibration{}, fmt.Errorf("scoring calibration: %w", err)
	}
	return cal, nil
}

func ProvideEngine(cal scoring.Calibration, l *applogger.Logger) *scoring.Engine {
	return scoring.NewEngine(cal, l)
}

func ProvideAnalyzer(cfg *config.Config) *temporal.Analyzer {
	return temporal.NewAnalyzer(temporal.Config{
		Window:      cfg.Temporal.Window,
		DecayFactor: cfg.Temporal.DecayFactor,
		Capacity:    cfg.Temporal.Capacity,
	})
}

func thresholdsFrom(s config.ThresholdSet) decision.Thresholds {
	return decision.Thresholds{
		BuyScore:      s.BuyScore,
		SellScore:     s.SellScore,
		ZBuy:          s.ZBuy,
		ZSell:         s.ZSell,
		MinConfidence: s.MinConfidence,
	}
}

func ProvideDecider(cfg *config.Config, l *applogger.Logger) (*decision.Decider, error) {
	table := decision.ThresholdTable{
		Conservative: thresholdsFrom(cfg.Decision.Conservative),
		Moderate:     thresholdsFrom(cfg.Decision.Moderate),
		Aggressive:   thresholdsFrom(cfg.Decision.Aggressive),
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("decision thresholds: %w", err)
	}
	return decision.NewDecider(table, l), nil
}

func ProvideSinkRetry(cfg *config.Config, l *applogger.Logger, rec *metrics.Recorder) *usecase.SinkRetryBuffer {
	return usecase.NewSinkRetryBuffer(cfg.ClickHouse.Retry.BufferSize, l,
		usecase.WithRetryLimit(cfg.ClickHouse.Retry.MaxRetries),
		usecase.WithRetryBackoff(cfg.ClickHouse.Retry.Backoff),
		usecase.WithRetryMetrics(rec),
	)
}

func ProvideHub(l *applogger.Logger, hc *svcmetrics.HTTPCollectors) *ws.Hub {
	return ws.NewHub(l, ws.WithObserver(hc))
}

func ProvidePipeline(
	cfg *config.Config,
	l *applogger.Logger,
	engine *scoring.Engine,
	analyzer *temporal.Analyzer,
	decider *decision.Decider,
	store domrepo.SignalStore,
	publisher domrepo.SignalPublisher,
	snapshots domrepo.HistoryStore,
	market domsvc.MarketContextProvider,
	rec *metrics.Recorder,
	retry *usecase.SinkRetryBuffer,
	hub *ws.Hub,
) *usecase.SignalPipeline {
	opts := []usecase.PipelineOption{
		usecase.WithPipelineMetrics(rec),
		usecase.WithSinkRetry(retry),
		usecase.WithBroadcaster(hub),
		usecase.WithDefaultRisk(models.RiskTolerance(cfg.Decision.RiskTolerance)),
	}
	// Interfaces stay nil unless the backing client exists.
	if store != nil {
		opts = append(opts, usecase.WithSignalStore(store))
	}
	if publisher != nil {
		opts = append(opts, usecase.WithSignalPublisher(publisher))
	}
	if snapshots != nil {
		opts = append(opts, usecase.WithHistorySnapshots(snapshots))
	}
	if market != nil {
		opts = append(opts, usecase.WithMarketContextProvider(market))
	}
	history := usecase.NewSignalHistory(cfg.History.MaxSignals)
	return usecase.NewSignalPipeline(engine, analyzer, decider, history, l, opts...)
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.RequestsPerSecond, cfg.Server.RateLimit.Burst)
}

func ProvideSignalsHandler(
	cfg *config.Config,
	l *applogger.Logger,
	pipeline *usecase.SignalPipeline,
	store domrepo.SignalStore,
	cache icache.BytesCache,
	limiter *ratelimit.Limiter,
	hc *svcmetrics.HTTPCollectors,
) *api.SignalsHandler {
	opts := []api.HandlerOption{
		api.WithTemporalCache(cache, cfg.Server.TemporalCacheTTL),
		api.WithGroupMiddleware(middleware.RateLimit(limiter, hc.RateLimited)),
	}
	if store != nil {
		opts = append(opts, api.WithStore(store))
	}
	return api.NewSignalsHandler(pipeline, l, opts...)
}

func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	reg *prometheus.Registry,
	hc *svcmetrics.HTTPCollectors,
	signals *api.SignalsHandler,
	hub *ws.Hub,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS("*"),
		xhttp.WithMiddleware(middleware.Metrics(hc, l, time.Second)),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	}
	return xhttp.NewServer(l, []xhttp.Handler{signals, hub}, opts...)
}

// ProvideKafkaConsumer returns nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, pipeline *usecase.SignalPipeline) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetHook(pkgkafka.HookChain{
		pkgkafka.TraceHook(),
		pkgkafka.LoggingHook(l, 500*time.Millisecond),
	})
	consumer.RegisterHandler(usecase.NewKafkaInputsHandler(cfg.Kafka.InputsTopic, pipeline, l))
	return consumer, nil
}

// ProvideApp assembles the application; closers run in reverse order on shutdown.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	retry *usecase.SinkRetryBuffer,
	hub *ws.Hub,
	limiter *ratelimit.Limiter,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	rdb *redis.Client,
) *server.App {
	opts := []server.Option{
		server.WithSinkRetry(retry),
		server.WithHub(hub),
		server.WithLimiter(limiter, time.Minute),
		server.WithCloser("log collector", func() error { l.RemoveCollector(); return nil }),
	}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer))
	}
	if rdb != nil {
		opts = append(opts, server.WithCloser("redis", rdb.Close))
	}
	if ch != nil {
		opts = append(opts, server.WithCloser("clickhouse", ch.Close))
	}
	if producer != nil {
		opts = append(opts, server.WithCloser("kafka producer", producer.Close))
	}
	return server.New(cfg, l, srv, opts...)
}
