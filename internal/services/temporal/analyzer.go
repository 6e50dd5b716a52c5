package temporal

import (
	"math"
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/features"
)

const insufficientReason = "Insufficient historical data"

type Config struct {
	Window      time.Duration
	DecayFactor float64
	Capacity    int
}

func DefaultConfig() Config {
	return Config{Window: 24 * time.Hour, DecayFactor: 0.95, Capacity: 200}
}

// Analyzer derives trend, regime, patterns and sub-signals from a Series.
// It is stateless apart from its clock and safe for concurrent use.
type Analyzer struct {
	cfg Config
	now func() time.Time
}

type Option func(*Analyzer)

// WithClock replaces time.Now, mostly for tests and replays.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

func NewAnalyzer(cfg Config, opts ...Option) *Analyzer {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.DecayFactor <= 0 || cfg.DecayFactor > 1 {
		cfg.DecayFactor = def.DecayFactor
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	a := &Analyzer{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Config() Config { return a.cfg }

func (a *Analyzer) NewSeries() *Series { return NewSeries(a.cfg.Capacity) }

// Add appends obs and prunes entries older than twice the window.
func (a *Analyzer) Add(s *Series, obs models.SentimentObservation) {
	s.push(obs)
	s.pruneBefore(a.now().Add(-2 * a.cfg.Window))
}

// Analyze summarizes the observations inside the window. Fewer than two
// observations yield the insufficient-data result.
func (a *Analyzer) Analyze(symbol string, s *Series) models.TemporalAnalysisResult {
	now := a.now()
	obs := s.since(now.Add(-a.cfg.Window))
	if len(obs) < 2 {
		return insufficient(symbol, len(obs))
	}

	scores := make([]float64, len(obs))
	hours := make([]float64, len(obs))
	t0 := obs[0].Timestamp
	for i, o := range obs {
		scores[i] = features.Clamp(o.SentimentScore, -1, 1)
		hours[i] = o.Timestamp.Sub(t0).Hours()
	}

	res := models.TemporalAnalysisResult{
		Symbol:       symbol,
		Observations: len(obs),
		Trend:        features.LinearSlope(hours, scores),
		Volatility:   features.StdDev(scores),
	}
	res.Velocity, res.Acceleration = velocityAndAcceleration(hours, scores)
	res.WeightedCurrentSentiment = a.weightedCurrent(obs, scores, now)

	res.Regime = classify(lastN(scores, regimeWindow))
	res.RegimeStability = stability(scores, res.Regime)
	res.RegimeDurationHours = duration(obs, scores, res.Regime)

	res.Patterns = detectPatterns(scores)
	res.Confidence = confidence(res.Trend, res.Volatility, res.RegimeStability)
	res.Signals = deriveSignals(res)
	return res
}

func insufficient(symbol string, n int) models.TemporalAnalysisResult {
	hold := models.SignalRecommendation{Action: models.ActionHold, Reasoning: insufficientReason}
	return models.TemporalAnalysisResult{
		Symbol:       symbol,
		Observations: n,
		Regime:       models.TemporalInsufficientData,
		Patterns:     []models.Pattern{},
		Signals: models.TemporalSignals{
			Momentum: hold,
			Reversal: hold,
			Regime:   hold,
			Overall:  hold,
		},
	}
}

// velocityAndAcceleration averages first differences per hour, then the change of
// those velocities per hour. Pairs with no elapsed time are skipped.
func velocityAndAcceleration(hours, scores []float64) (float64, float64) {
	type step struct{ v, dh float64 }
	steps := make([]step, 0, len(scores)-1)
	for i := 1; i < len(scores); i++ {
		dh := hours[i] - hours[i-1]
		if dh <= 0 {
			continue
		}
		steps = append(steps, step{v: (scores[i] - scores[i-1]) / dh, dh: dh})
	}
	if len(steps) == 0 {
		return 0, 0
	}
	vs := make([]float64, len(steps))
	for i, st := range steps {
		vs[i] = st.v
	}
	var accels []float64
	for i := 1; i < len(steps); i++ {
		accels = append(accels, (steps[i].v-steps[i-1].v)/steps[i].dh)
	}
	return features.Mean(vs), features.Mean(accels)
}

func (a *Analyzer) weightedCurrent(obs []models.SentimentObservation, scores []float64, now time.Time) float64 {
	sumW, sumWS := 0.0, 0.0
	for i, o := range obs {
		ago := now.Sub(o.Timestamp).Hours()
		if ago < 0 {
			ago = 0
		}
		w := math.Pow(a.cfg.DecayFactor, ago) *
			features.Clamp(o.Confidence, 0, 1) *
			features.Clamp(o.RelevanceScore, 0, 1)
		sumW += w
		sumWS += w * scores[i]
	}
	if sumW <= 0 {
		return features.Mean(scores)
	}
	return features.Clamp(sumWS/sumW, -1, 1)
}

func confidence(trend, volatility, stability float64) float64 {
	c := 0.5
	switch abs := math.Abs(trend); {
	case abs > 0.1:
		c += 0.2
	case abs > 0.05:
		c += 0.1
	}
	switch {
	case volatility < 0.2:
		c += 0.15
	case volatility < 0.4:
		c += 0.1
	default:
		c -= 0.1
	}
	c += stability * 0.25
	return features.Clamp(c, 0, 1)
}

func lastN(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}
