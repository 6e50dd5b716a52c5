package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/services/decision"
	"FinSignal/internal/services/scoring"
	"FinSignal/internal/services/temporal"
	applogger "FinSignal/pkg/logger"
)

// ErrInvalidInput is returned for inputs the pipeline cannot attribute to an instrument.
var ErrInvalidInput = errors.New("invalid input")

// Sink names used in PipelineResult.SinkErrors.
const (
	SinkStoreMetrics = "store_metrics"
	SinkStoreSignal  = "store_signal"
	SinkPublish      = "publish"
	SinkSnapshot     = "snapshot"
)

// SignalPipeline runs one input through scoring, temporal tracking and the decision
// step under the instrument lock, then fans the outputs out to the configured sinks.
// Every sink is optional.
type SignalPipeline struct {
	book     *InstrumentBook
	engine   *scoring.Engine
	analyzer *temporal.Analyzer
	decider  *decision.Decider
	history  *SignalHistory
	log      *applogger.Logger

	store       domrepo.SignalStore
	publisher   domrepo.SignalPublisher
	snapshots   domrepo.HistoryStore
	broadcaster domrepo.Broadcaster
	marketCtx   domsvc.MarketContextProvider
	metrics     domrepo.Metrics
	retry       *SinkRetryBuffer

	defaultRisk models.RiskTolerance
	sinkTimeout time.Duration
	now         func() time.Time
}

type PipelineOption func(*SignalPipeline)

func WithSignalStore(s domrepo.SignalStore) PipelineOption {
	return func(p *SignalPipeline) { p.store = s }
}

func WithSignalPublisher(pub domrepo.SignalPublisher) PipelineOption {
	return func(p *SignalPipeline) { p.publisher = pub }
}

// WithHistorySnapshots enables warm start and per-input snapshots of normalizer history.
func WithHistorySnapshots(h domrepo.HistoryStore) PipelineOption {
	return func(p *SignalPipeline) { p.snapshots = h }
}

func WithBroadcaster(b domrepo.Broadcaster) PipelineOption {
	return func(p *SignalPipeline) { p.broadcaster = b }
}

// WithMarketContextProvider is consulted only when an input carries no market context.
func WithMarketContextProvider(mc domsvc.MarketContextProvider) PipelineOption {
	return func(p *SignalPipeline) { p.marketCtx = mc }
}

func WithPipelineMetrics(m domrepo.Metrics) PipelineOption {
	return func(p *SignalPipeline) { p.metrics = m }
}

// WithSinkRetry buffers failed store writes for background retry.
func WithSinkRetry(b *SinkRetryBuffer) PipelineOption {
	return func(p *SignalPipeline) { p.retry = b }
}

func WithDefaultRisk(rt models.RiskTolerance) PipelineOption {
	return func(p *SignalPipeline) {
		if rt.IsValid() {
			p.defaultRisk = rt
		}
	}
}

func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *SignalPipeline) { p.now = now }
}

func NewSignalPipeline(
	engine *scoring.Engine,
	analyzer *temporal.Analyzer,
	decider *decision.Decider,
	history *SignalHistory,
	log *applogger.Logger,
	opts ...PipelineOption,
) *SignalPipeline {
	if log == nil {
		log = applogger.Nop()
	}
	p := &SignalPipeline{
		book:        NewInstrumentBook(engine, analyzer),
		engine:      engine,
		analyzer:    analyzer,
		decider:     decider,
		history:     history,
		log:         log,
		defaultRisk: models.RiskModerate,
		sinkTimeout: 5 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *SignalPipeline) History() *SignalHistory { return p.history }

func (p *SignalPipeline) Book() *InstrumentBook { return p.book }

// Process scores one input and emits its signal. Sink failures do not fail the call;
// they are reported in SinkErrors.
func (p *SignalPipeline) Process(ctx context.Context, in models.SentimentInput) (models.PipelineResult, error) {
	start := time.Now()
	in.Normalize()
	symbol := in.Symbol
	if symbol == "" {
		p.recordError("invalid_input")
		return models.PipelineResult{}, fmt.Errorf("%w: symbol is required", ErrInvalidInput)
	}

	at := in.ObservedAt
	if at.IsZero() {
		at = p.now()
	}
	at = at.UTC()

	market := in.Market
	if market == nil && p.marketCtx != nil {
		mc, err := p.marketCtx.MarketContext(ctx, symbol)
		if err != nil {
			p.recordError("market_context")
			p.log.Warn("market context lookup failed",
				applogger.String("symbol", symbol),
				applogger.Error(err))
		} else {
			market = mc
		}
	}

	risk := p.defaultRisk
	if in.RiskTolerance != "" {
		risk = models.RiskTolerance(in.RiskTolerance)
	}

	st := p.book.acquire(symbol)
	st.mu.Lock()
	p.warmStart(ctx, symbol, st)

	scored := p.engine.Score(st.history, scoring.Input{
		Symbol:     symbol,
		Components: in.Components,
		Market:     market,
		News:       in.News,
		At:         at,
	})
	p.analyzer.Add(st.series, models.SentimentObservation{
		Timestamp:         at,
		Symbol:            symbol,
		SentimentScore:    scored.Metrics.NormalizedScore/50 - 1,
		Confidence:        scored.Metrics.Confidence,
		NewsCount:         len(in.News),
		RelevanceScore:    in.Relevance,
		VolumeImpact:      in.VolumeImpact,
		SourceCredibility: in.SourceCredibility,
	})
	tr := p.analyzer.Analyze(symbol, st.series)
	signal := p.decider.Decide(scored.Metrics, risk, &tr)
	var snapshot []float64
	if p.snapshots != nil {
		snapshot = st.history.Values()
	}
	st.mu.Unlock()

	res := models.PipelineResult{
		Metrics:  scored.Metrics,
		Quality:  scored.Quality,
		Temporal: tr,
		Signal:   signal,
	}

	if p.history != nil {
		p.history.Append(signal)
	}
	if p.broadcaster != nil {
		p.broadcaster.Broadcast(signal)
	}
	res.SinkErrors = p.fanOut(ctx, scored.Metrics, signal, snapshot)

	if p.metrics != nil {
		for _, issue := range scored.Quality.Issues {
			p.metrics.RecordQualityIssue(issue.Kind)
		}
		p.metrics.RecordScore(symbol, scored.Metrics.NormalizedScore)
		p.metrics.RecordSignal(symbol, signal.Signal)
		p.metrics.RecordLatency("process", time.Since(start).Seconds())
	}
	p.log.Debug("signal emitted",
		applogger.String("symbol", symbol),
		applogger.String("signal", string(signal.Signal)),
		applogger.Float64("normalized_score", scored.Metrics.NormalizedScore),
		applogger.Float64("confidence", signal.Confidence))
	return res, nil
}

// warmStart restores normalizer history from the snapshot store on first touch.
// Must be called with st.mu held.
func (p *SignalPipeline) warmStart(ctx context.Context, symbol string, st *instrumentState) {
	if st.warm {
		return
	}
	st.warm = true
	if p.snapshots == nil {
		return
	}
	lctx, cancel := context.WithTimeout(ctx, p.sinkTimeout)
	defer cancel()
	values, err := p.snapshots.Load(lctx, symbol)
	if err != nil {
		p.recordError("history_load")
		p.log.Warn("history snapshot load failed",
			applogger.String("symbol", symbol),
			applogger.Error(err))
		return
	}
	if len(values) > 0 {
		st.history.Restore(values)
		p.log.Info("history restored",
			applogger.String("symbol", symbol),
			applogger.Int("samples", st.history.Len()))
	}
}

type sinkResult struct {
	name string
	err  error
}

func (p *SignalPipeline) fanOut(ctx context.Context, m models.SentimentMetrics, s models.TradingSignal, snapshot []float64) map[string]string {
	type sink struct {
		name  string
		write func(ctx context.Context) error
		retry bool
	}
	var sinks []sink
	if p.store != nil {
		sinks = append(sinks,
			sink{SinkStoreMetrics, func(ctx context.Context) error { return p.store.StoreMetrics(ctx, m) }, true},
			sink{SinkStoreSignal, func(ctx context.Context) error { return p.store.StoreSignal(ctx, s) }, true},
		)
	}
	if p.publisher != nil {
		sinks = append(sinks, sink{SinkPublish, func(ctx context.Context) error { return p.publisher.Publish(ctx, s) }, false})
	}
	if p.snapshots != nil {
		sinks = append(sinks, sink{SinkSnapshot, func(ctx context.Context) error { return p.snapshots.Save(ctx, s.Symbol, snapshot) }, false})
	}
	if len(sinks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.sinkTimeout)
	defer cancel()

	ch := make(chan sinkResult, len(sinks))
	var wg sync.WaitGroup
	for _, sk := range sinks {
		wg.Add(1)
		go func(sk sink) {
			defer wg.Done()
			ch <- sinkResult{sk.name, sk.write(ctx)}
		}(sk)
	}
	go func() { wg.Wait(); close(ch) }()

	errs := map[string]string{}
	retryable := map[string]func(context.Context) error{}
	for _, sk := range sinks {
		if sk.retry {
			retryable[sk.name] = sk.write
		}
	}
	for r := range ch {
		if r.err == nil {
			continue
		}
		errs[r.name] = r.err.Error()
		p.recordError("sink_" + r.name)
		p.log.Warn("sink write failed",
			applogger.String("sink", r.name),
			applogger.String("symbol", s.Symbol),
			applogger.Error(r.err))
		if w, ok := retryable[r.name]; ok && p.retry != nil {
			p.retry.Enqueue(r.name, w)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Temporal analyzes the current window for symbol without adding an observation.
// Unknown symbols get the insufficient-data result.
func (p *SignalPipeline) Temporal(symbol string) models.TemporalAnalysisResult {
	symbol = strings.TrimSpace(symbol)
	st, ok := p.book.lookup(symbol)
	if !ok {
		return p.analyzer.Analyze(symbol, p.analyzer.NewSeries())
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return p.analyzer.Analyze(symbol, st.series)
}

func (p *SignalPipeline) recordError(kind string) {
	if p.metrics != nil {
		p.metrics.RecordError(kind)
	}
}
