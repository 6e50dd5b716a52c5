package logger

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	topics  []string
	batches []LogBatch
}

func (p *recordingPublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, payload.(LogBatch))
	return nil
}

func (p *recordingPublisher) snapshot() ([]string, []LogBatch) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...), append([]LogBatch(nil), p.batches...)
}

func TestCollector_AggregatesDuplicates(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "warnings", Publisher: pub})

	fields := map[string]interface{}{"symbol": "AAPL", "flag": "nan_component"}
	c.AddLog("warn", "input quality", fields, "engine.go:10")
	c.AddLog("warn", "input quality", map[string]interface{}{"flag": "nan_component", "symbol": "AAPL"}, "engine.go:10")
	c.AddLog("warn", "input quality", map[string]interface{}{"symbol": "MSFT"}, "engine.go:10")
	assert.Equal(t, 2, c.Pending())

	c.Close()

	topics, batches := pub.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"warnings"}, topics)
	assert.Equal(t, "finsignal", batches[0].Service)
	require.Len(t, batches[0].Entries, 2)
	assert.Equal(t, 2, batches[0].Entries[0].Count)
	assert.Equal(t, "AAPL", batches[0].Entries[0].Fields["symbol"])
	assert.Equal(t, 1, batches[0].Entries[1].Count)
}

func TestCollector_FlushesAtThreshold(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	defer c.Close()

	c.AddLog("warn", "a", nil, "x.go:1")
	c.AddLog("warn", "b", nil, "x.go:2")

	assert.Equal(t, 0, c.Pending())
	assert.Eventually(t, func() bool {
		_, batches := pub.snapshot()
		return len(batches) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestCollector_CloseWithoutEntriesPublishesNothing(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})
	c.Close()

	_, batches := pub.snapshot()
	assert.Empty(t, batches)
}

func TestLogger_WarnAndErrorFeedCollector(t *testing.T) {
	var buf bytes.Buffer
	pub := &recordingPublisher{}
	l := NewWriter(&buf, zerolog.DebugLevel)
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "warnings", Publisher: pub})

	l.Info("started")
	l.Warn("stale input", String("symbol", "AAPL"))
	l.Warn("stale input", String("symbol", "AAPL"))
	l.Error("store write failed", Error(assert.AnError))
	assert.Equal(t, 2, l.collector.Pending())

	l.RemoveCollector()

	_, batches := pub.snapshot()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Entries, 2)
	assert.Contains(t, buf.String(), `"message":"stale input"`)
	assert.Contains(t, buf.String(), `"symbol":"AAPL"`)
}

func TestLogger_WithSharesCollector(t *testing.T) {
	pub := &recordingPublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})
	defer l.RemoveCollector()

	child := l.With(String("component", "pipeline"))
	child.Warn("sink failed")

	assert.Equal(t, 1, l.collector.Pending())
}

func TestNew_RejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}
