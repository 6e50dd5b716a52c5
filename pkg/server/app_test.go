package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/handler/ws"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
)

func TestApp_RunStopsOnContextAndClosesInReverse(t *testing.T) {
	var order []string
	srv := xhttp.NewServer(nil, nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))
	app := New(config.Default(), nil, srv,
		WithSinkRetry(usecase.NewSinkRetryBuffer(4, nil)),
		WithHub(ws.NewHub(nil)),
		WithLimiter(ratelimit.New(1, 1), 10*time.Millisecond),
		WithCloser("clickhouse", func() error { order = append(order, "clickhouse"); return nil }),
		WithCloser("kafka", func() error { order = append(order, "kafka"); return nil }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Equal(t, []string{"kafka", "clickhouse"}, order)
}

func TestApp_ShutdownJoinsCloseErrors(t *testing.T) {
	app := New(config.Default(), nil, nil,
		WithCloser("redis", func() error { return errors.New("redis: closed") }),
		WithCloser("ok", func() error { return nil }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := app.Run(ctx)
	assert.ErrorContains(t, err, "redis: closed")
}
