package scoring

import (
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/pkg/logger"
)

// Input is everything one scoring call needs besides the instrument history.
type Input struct {
	Symbol     string
	Components models.SentimentComponents
	Market     *models.MarketContext
	News       []models.NewsItem
	At         time.Time
}

type Result struct {
	Metrics models.SentimentMetrics
	Quality models.InputQuality
}

// Engine turns raw components into SentimentMetrics. It holds no per-instrument
// state, so one Engine serves every symbol concurrently; the History passed to
// Score must not be shared between goroutines without a lock.
type Engine struct {
	cal Calibration
	log *logger.Logger
}

func NewEngine(cal Calibration, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{cal: cal, log: log}
}

func (e *Engine) Calibration() Calibration { return e.cal }

// NewHistory returns an empty history sized to the lookback.
func (e *Engine) NewHistory() *History { return NewHistory(e.cal.Lookback()) }

// Score runs aggregation, news decay, market adjustment, confidence, normalization and
// categorization in that order. It appends the market-adjusted score to h, so two
// identical calls can return different z-scores.
func (e *Engine) Score(h *History, in Input) Result {
	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	clean, quality := Sanitize(in.Components, e.cal.weights)
	base := Aggregate(clean, e.cal.weights)
	raw := ApplyNewsDecay(base, in.News, at, e.cal, &quality)

	volAdj := AdjustForVolatility(raw, in.Market, e.cal, &quality)
	marketAdj := AdjustForRegime(volAdj, in.Market, e.cal, &quality)

	confidence := Confidence(clean, h, regimeConfidence(in.Market, &quality), e.cal)
	norm := Normalize(marketAdj, h, e.cal.MinSamples())

	for _, issue := range quality.Issues {
		e.log.Warn("input quality issue",
			logger.String("symbol", in.Symbol),
			logger.String("kind", string(issue.Kind)),
			logger.String("field", issue.Field),
			logger.String("detail", issue.Detail),
		)
	}

	return Result{
		Metrics: models.SentimentMetrics{
			Symbol:                  in.Symbol,
			Timestamp:               at,
			RawScore:                raw,
			NormalizedScore:         norm.Normalized,
			Strength:                Categorize(norm.Normalized, norm.ZScore),
			Confidence:              confidence,
			VolatilityAdjustedScore: volAdj,
			MarketAdjustedScore:     marketAdj,
			ZScore:                  norm.ZScore,
			PercentileRank:          norm.Percentile,
		},
		Quality: quality,
	}
}
