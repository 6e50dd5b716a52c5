package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/decision"
	"FinSignal/internal/services/scoring"
	"FinSignal/internal/services/temporal"
)

func newReplayer(t *testing.T, risk string) *Replayer {
	t.Helper()
	r, err := NewReplayer(
		scoring.NewEngine(scoring.DefaultCalibration(), nil),
		temporal.DefaultConfig(),
		decision.NewDecider(decision.DefaultThresholds(), nil),
		risk, nil)
	require.NoError(t, err)
	return r
}

func TestReplayer_WritesOneSignalPerInput(t *testing.T) {
	r := newReplayer(t, "")
	in := strings.Join([]string{
		`{"symbol":"AAPL","components":{"news_sentiment":0.5},"observed_at":"2025-06-02T09:00:00Z"}`,
		``,
		`not json`,
		`{"symbol":"AAPL","components":{"news_sentiment":0.7},"observed_at":"2025-06-02T10:00:00Z"}`,
		`{"symbol":"MSFT","components":{"social_sentiment":-0.4},"observed_at":"2025-06-02T10:30:00Z"}`,
	}, "\n")

	var out bytes.Buffer
	stats, err := r.Run(context.Background(), strings.NewReader(in), &out)
	require.NoError(t, err)
	assert.Equal(t, ReplayStats{Lines: 4, Scored: 3, Skipped: 1}, stats)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	var last models.TradingSignal
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	assert.Equal(t, "MSFT", last.Symbol)
	assert.Equal(t, 3, r.History().Summary().Total)
}

func TestReplayer_ClockFollowsStream(t *testing.T) {
	r := newReplayer(t, "")
	in := `{"symbol":"AAPL","components":{"news_sentiment":0.5},"observed_at":"2021-01-04T09:00:00Z"}` + "\n" +
		`{"symbol":"AAPL","components":{"news_sentiment":0.5},"observed_at":"2021-01-04T08:00:00Z"}`

	var out bytes.Buffer
	_, err := r.Run(context.Background(), strings.NewReader(in), &out)
	require.NoError(t, err)
	assert.Equal(t, "2021-01-04T09:00:00Z", r.clock.Now().Format("2006-01-02T15:04:05Z07:00"))
}

func TestReplayer_UntimestampedLinesNeedStreamClock(t *testing.T) {
	r := newReplayer(t, "")
	in := strings.Join([]string{
		`{"symbol":"AAPL","components":{"news_sentiment":0.5}}`,
		`{"symbol":"AAPL","components":{"news_sentiment":0.6},"observed_at":"2025-06-02T09:00:00Z"}`,
		`{"symbol":"AAPL","components":{"news_sentiment":0.7}}`,
	}, "\n")

	var out bytes.Buffer
	stats, err := r.Run(context.Background(), strings.NewReader(in), &out)
	require.NoError(t, err)
	assert.Equal(t, ReplayStats{Lines: 3, Scored: 2, Skipped: 1}, stats)

	want := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var s models.TradingSignal
		require.NoError(t, json.Unmarshal([]byte(line), &s))
		assert.True(t, s.Timestamp.Equal(want), "signal at %s", s.Timestamp)
	}
}

func TestReplayer_RiskOverride(t *testing.T) {
	_, err := NewReplayer(nil, temporal.DefaultConfig(), nil, "reckless", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	r := newReplayer(t, "aggressive")
	var out bytes.Buffer
	_, err = r.Run(context.Background(),
		strings.NewReader(`{"symbol":"AAPL","components":{"news_sentiment":0.5},"risk_tolerance":"conservative","observed_at":"2025-06-02T09:00:00Z"}`), &out)
	require.NoError(t, err)

	var s models.TradingSignal
	require.NoError(t, json.Unmarshal(out.Bytes(), &s))
	assert.Equal(t, "aggressive", s.SupportingData["risk_tolerance"])
}

func TestReplayer_StopsOnCancelledContext(t *testing.T) {
	r := newReplayer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, strings.NewReader(`{"symbol":"AAPL","components":{"news_sentiment":0.5}}`), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
