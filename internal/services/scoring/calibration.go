package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"

	"FinSignal/internal/domain/models"
)

// ErrInvalidCalibration is wrapped by every NewCalibration validation failure.
var ErrInvalidCalibration = errors.New("invalid calibration")

const weightSumTolerance = 1e-6

// Calibration is the immutable parameter set of the scoring engine.
// Build it with NewCalibration; the zero value is not usable.
type Calibration struct {
	weights           map[string]float64
	halfLifeDays      float64
	decayGrace        time.Duration
	volLow, volHigh   float64
	volMin, volMax    float64
	regimeMultipliers map[models.MarketRegime]float64
	lookback          int
	minSamples        int
}

type CalibrationOption func(*Calibration)

func WithWeights(w map[string]float64) CalibrationOption {
	return func(c *Calibration) {
		c.weights = make(map[string]float64, len(w))
		for k, v := range w {
			c.weights[k] = v
		}
	}
}

func WithHalfLifeDays(days float64) CalibrationOption {
	return func(c *Calibration) { c.halfLifeDays = days }
}

// WithDecayGrace sets the age below which news items keep full weight.
func WithDecayGrace(d time.Duration) CalibrationOption {
	return func(c *Calibration) { c.decayGrace = d }
}

func WithVolatilityThresholds(low, high float64) CalibrationOption {
	return func(c *Calibration) { c.volLow, c.volHigh = low, high }
}

// WithVolatilityRange sets the multiplier applied above the high threshold (lo)
// and below the low threshold (hi).
func WithVolatilityRange(lo, hi float64) CalibrationOption {
	return func(c *Calibration) { c.volMin, c.volMax = lo, hi }
}

func WithRegimeMultiplier(r models.MarketRegime, m float64) CalibrationOption {
	return func(c *Calibration) {
		next := make(map[models.MarketRegime]float64, len(c.regimeMultipliers)+1)
		for k, v := range c.regimeMultipliers {
			next[k] = v
		}
		next[r] = m
		c.regimeMultipliers = next
	}
}

func WithLookback(n int) CalibrationOption {
	return func(c *Calibration) { c.lookback = n }
}

func WithMinSamples(n int) CalibrationOption {
	return func(c *Calibration) { c.minSamples = n }
}

func defaultCalibration() Calibration {
	return Calibration{
		weights: map[string]float64{
			models.ComponentNews:      0.30,
			models.ComponentSocial:    0.15,
			models.ComponentTechnical: 0.20,
			models.ComponentOptions:   0.10,
			models.ComponentInsider:   0.10,
			models.ComponentAnalyst:   0.10,
			models.ComponentEarnings:  0.05,
		},
		halfLifeDays: 5.0,
		decayGrace:   6 * time.Hour,
		volLow:       0.15,
		volHigh:      0.35,
		volMin:       0.7,
		volMax:       1.5,
		regimeMultipliers: map[models.MarketRegime]float64{
			models.RegimeBull:     1.1,
			models.RegimeBear:     0.9,
			models.RegimeVolatile: 0.8,
			models.RegimeStable:   1.0,
			models.RegimeCrisis:   0.6,
		},
		lookback:   252,
		minSamples: 30,
	}
}

// DefaultCalibration returns the stock parameter set.
func DefaultCalibration() Calibration {
	return defaultCalibration()
}

// NewCalibration applies opts over the defaults and validates the result.
func NewCalibration(opts ...CalibrationOption) (Calibration, error) {
	c := defaultCalibration()
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return Calibration{}, err
	}
	return c, nil
}

func (c Calibration) validate() error {
	if len(c.weights) == 0 {
		return fmt.Errorf("%w: empty weight table", ErrInvalidCalibration)
	}
	sum := 0.0
	for name, w := range c.weights {
		if !isCanonical(name) {
			return fmt.Errorf("%w: unknown component %q", ErrInvalidCalibration, name)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %s=%v", ErrInvalidCalibration, name, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidCalibration, sum)
	}
	if !(c.halfLifeDays > 0) {
		return fmt.Errorf("%w: half life must be positive", ErrInvalidCalibration)
	}
	if c.decayGrace < 0 {
		return fmt.Errorf("%w: negative decay grace", ErrInvalidCalibration)
	}
	if c.volLow < 0 || !(c.volLow < c.volHigh) {
		return fmt.Errorf("%w: volatility thresholds %v/%v", ErrInvalidCalibration, c.volLow, c.volHigh)
	}
	if !(c.volMin > 0) || c.volMin > c.volMax {
		return fmt.Errorf("%w: volatility range [%v, %v]", ErrInvalidCalibration, c.volMin, c.volMax)
	}
	for _, r := range []models.MarketRegime{
		models.RegimeBull, models.RegimeBear, models.RegimeVolatile, models.RegimeStable, models.RegimeCrisis,
	} {
		m, ok := c.regimeMultipliers[r]
		if !ok || !(m > 0) {
			return fmt.Errorf("%w: regime multiplier for %s", ErrInvalidCalibration, r)
		}
	}
	for r := range c.regimeMultipliers {
		if !r.IsValid() {
			return fmt.Errorf("%w: unknown regime %q", ErrInvalidCalibration, r)
		}
	}
	if c.lookback < 1 {
		return fmt.Errorf("%w: lookback must be >= 1", ErrInvalidCalibration)
	}
	if c.minSamples < 1 || c.minSamples > c.lookback {
		return fmt.Errorf("%w: min samples %d outside [1, %d]", ErrInvalidCalibration, c.minSamples, c.lookback)
	}
	return nil
}

func isCanonical(name string) bool {
	for _, n := range models.CanonicalComponents {
		if n == name {
			return true
		}
	}
	return false
}

// Weights returns a copy of the component weight table.
func (c Calibration) Weights() map[string]float64 {
	out := make(map[string]float64, len(c.weights))
	for k, v := range c.weights {
		out[k] = v
	}
	return out
}

func (c Calibration) Weight(component string) float64 { return c.weights[component] }

func (c Calibration) HalfLifeDays() float64 { return c.halfLifeDays }

func (c Calibration) DecayGrace() time.Duration { return c.decayGrace }

func (c Calibration) VolatilityThresholds() (low, high float64) { return c.volLow, c.volHigh }

func (c Calibration) VolatilityRange() (lo, hi float64) { return c.volMin, c.volMax }

func (c Calibration) RegimeMultiplier(r models.MarketRegime) (float64, bool) {
	m, ok := c.regimeMultipliers[r]
	return m, ok
}

func (c Calibration) Lookback() int { return c.lookback }

func (c Calibration) MinSamples() int { return c.minSamples }
