package usecase

import (
	"context"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/decision"
	"FinSignal/internal/services/scoring"
	"FinSignal/internal/services/temporal"
)

type fakeStore struct {
	mu      sync.Mutex
	metrics []models.SentimentMetrics
	signals []models.TradingSignal
	err     error
}

func (s *fakeStore) StoreMetrics(_ context.Context, m models.SentimentMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.metrics = append(s.metrics, m)
	return nil
}

func (s *fakeStore) StoreSignal(_ context.Context, sig models.TradingSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.signals = append(s.signals, sig)
	return nil
}

func (s *fakeStore) QuerySignals(context.Context, string, time.Time, time.Time, int) ([]models.TradingSignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TradingSignal(nil), s.signals...), nil
}

func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

type fakePublisher struct {
	mu   sync.Mutex
	sent []models.TradingSignal
}

func (p *fakePublisher) Publish(_ context.Context, s models.TradingSignal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, s)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeSnapshots struct {
	mu     sync.Mutex
	loaded map[string][]float64
	saved  map[string][]float64
	loads  int
}

func (f *fakeSnapshots) Load(_ context.Context, symbol string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.loaded[symbol], nil
}

func (f *fakeSnapshots) Save(_ context.Context, symbol string, values []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string][]float64{}
	}
	f.saved[symbol] = values
	return nil
}

type fakeBroadcaster struct {
	mu  sync.Mutex
	got []models.TradingSignal
}

func (b *fakeBroadcaster) Broadcast(s models.TradingSignal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, s)
}

type fakeMarket struct {
	mc    *models.MarketContext
	err   error
	calls int
}

func (f *fakeMarket) MarketContext(context.Context, string) (*models.MarketContext, error) {
	f.calls++
	return f.mc, f.err
}

type fakeMetrics struct {
	mu      sync.Mutex
	signals map[models.SignalType]int
	errors  map[string]int
	quality map[models.QualityKind]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		signals: map[models.SignalType]int{},
		errors:  map[string]int{},
		quality: map[models.QualityKind]int{},
	}
}

func (m *fakeMetrics) RecordSignal(_ string, s models.SignalType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals[s]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordScore(string, float64)    {}
func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) RecordQualityIssue(k models.QualityKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quality[k]++
}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

// testClock is a settable clock shared by the pipeline and the analyzer.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

var baseTime = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func newTestPipeline(clock *testClock, opts ...PipelineOption) *SignalPipeline {
	engine := scoring.NewEngine(scoring.DefaultCalibration(), nil)
	analyzer := temporal.NewAnalyzer(temporal.DefaultConfig(), temporal.WithClock(clock.Now))
	decider := decision.NewDecider(decision.DefaultThresholds(), nil)
	opts = append([]PipelineOption{WithPipelineClock(clock.Now)}, opts...)
	return NewSignalPipeline(engine, analyzer, decider, NewSignalHistory(100), nil, opts...)
}

func input(symbol string, news float64, at time.Time) models.SentimentInput {
	return models.SentimentInput{
		Symbol: symbol,
		Components: models.SentimentComponents{
			models.ComponentNews:   news,
			models.ComponentSocial: news,
		},
		ObservedAt:        at,
		Relevance:         1,
		SourceCredibility: 1,
	}
}
