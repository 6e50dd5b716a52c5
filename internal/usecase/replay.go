package usecase

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/decision"
	"FinSignal/internal/services/scoring"
	"FinSignal/internal/services/temporal"
	applogger "FinSignal/pkg/logger"
)

const maxReplayLine = 4 << 20

// ReplayStats summarizes one replay run.
type ReplayStats struct {
	Lines   int `json:"lines"`
	Scored  int `json:"scored"`
	Skipped int `json:"skipped"`
}

// replayClock follows the newest ObservedAt seen so decay and the temporal window
// are evaluated as of the recorded stream, not the wall clock.
type replayClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *replayClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *replayClock) advance(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.t) {
		c.t = t
	}
}

// Replayer scores a recorded JSONL stream of SentimentInput offline. Only the
// in-process history is used as a sink.
type Replayer struct {
	pipeline *SignalPipeline
	clock    *replayClock
	risk     string
	log      *applogger.Logger
}

// NewReplayer builds an isolated pipeline. risk, when non-empty, overrides every
// input's risk tolerance.
func NewReplayer(engine *scoring.Engine, tcfg temporal.Config, decider *decision.Decider, risk string, log *applogger.Logger) (*Replayer, error) {
	if risk != "" && !models.RiskTolerance(risk).IsValid() {
		return nil, fmt.Errorf("%w: unknown risk tolerance %q", ErrInvalidInput, risk)
	}
	if log == nil {
		log = applogger.Nop()
	}
	clock := &replayClock{}
	analyzer := temporal.NewAnalyzer(tcfg, temporal.WithClock(clock.Now))
	p := NewSignalPipeline(engine, analyzer, decider, NewSignalHistory(0), log, WithPipelineClock(clock.Now))
	return &Replayer{pipeline: p, clock: clock, risk: risk, log: log}, nil
}

// History exposes the signals produced so far.
func (r *Replayer) History() *SignalHistory { return r.pipeline.History() }

// Run reads one input per line from in and writes one JSON signal per line to out.
// Blank lines are ignored; undecodable lines are logged and skipped. A line without
// observed_at takes the stream clock, so it is skipped until a timestamped line sets it.
func (r *Replayer) Run(ctx context.Context, in io.Reader, out io.Writer) (ReplayStats, error) {
	var stats ReplayStats
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxReplayLine)
	enc := json.NewEncoder(out)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.Lines++

		input, err := DecodeInput(line)
		if err != nil {
			stats.Skipped++
			r.log.Warn("replay: skipping line", applogger.Int("line", stats.Lines), applogger.Error(err))
			continue
		}
		if r.risk != "" {
			input.RiskTolerance = r.risk
		}
		if input.ObservedAt.IsZero() {
			if r.clock.Now().IsZero() {
				stats.Skipped++
				r.log.Warn("replay: no observed_at before first timestamped input", applogger.Int("line", stats.Lines))
				continue
			}
		} else {
			r.clock.advance(input.ObservedAt.UTC())
		}

		res, err := r.pipeline.Process(ctx, input)
		if err != nil {
			stats.Skipped++
			r.log.Warn("replay: input rejected", applogger.Int("line", stats.Lines), applogger.Error(err))
			continue
		}
		if err := enc.Encode(res.Signal); err != nil {
			return stats, fmt.Errorf("write signal: %w", err)
		}
		stats.Scored++
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("read inputs: %w", err)
	}
	return stats, nil
}
