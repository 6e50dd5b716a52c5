package usecase

import (
	"sort"
	"sync"

	"FinSignal/internal/services/scoring"
	"FinSignal/internal/services/temporal"
)

// instrumentState is everything that must be serialized for one symbol: the
// normalizer history and the temporal observation series.
type instrumentState struct {
	mu      sync.Mutex
	history *scoring.History
	series  *temporal.Series
	warm    bool
}

// InstrumentBook owns per-symbol state. Different symbols only contend on the map lookup.
type InstrumentBook struct {
	mu       sync.RWMutex
	items    map[string]*instrumentState
	engine   *scoring.Engine
	analyzer *temporal.Analyzer
}

func NewInstrumentBook(engine *scoring.Engine, analyzer *temporal.Analyzer) *InstrumentBook {
	return &InstrumentBook{
		items:    make(map[string]*instrumentState),
		engine:   engine,
		analyzer: analyzer,
	}
}

func (b *InstrumentBook) lookup(symbol string) (*instrumentState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st, ok := b.items[symbol]
	return st, ok
}

// acquire returns the state for symbol, creating it on first touch.
func (b *InstrumentBook) acquire(symbol string) *instrumentState {
	if st, ok := b.lookup(symbol); ok {
		return st
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.items[symbol]; ok {
		return st
	}
	st := &instrumentState{
		history: b.engine.NewHistory(),
		series:  b.analyzer.NewSeries(),
	}
	b.items[symbol] = st
	return st
}

// Symbols lists tracked instruments in sorted order.
func (b *InstrumentBook) Symbols() []string {
	b.mu.RLock()
	out := make([]string, 0, len(b.items))
	for s := range b.items {
		out = append(out, s)
	}
	b.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (b *InstrumentBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}
