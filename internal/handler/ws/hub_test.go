package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinSignal/internal/domain/models"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	h := NewHub(nil)
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/signals"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readSignal(t *testing.T, conn *websocket.Conn) models.TradingSignal {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var s models.TradingSignal
	require.NoError(t, json.Unmarshal(b, &s))
	return s
}

func TestHub_BroadcastReachesSubscribers(t *testing.T) {
	h, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	h.Broadcast(models.TradingSignal{ID: "1", Symbol: "AAPL", Signal: models.SignalBuy})

	got := readSignal(t, conn)
	assert.Equal(t, "1", got.ID)
	assert.Equal(t, models.SignalBuy, got.Signal)
}

func TestHub_SymbolFilter(t *testing.T) {
	h, url := startHub(t)
	conn := dial(t, url+"?symbol=msft")
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	h.Broadcast(models.TradingSignal{ID: "a", Symbol: "AAPL"})
	h.Broadcast(models.TradingSignal{ID: "m", Symbol: "MSFT"})

	assert.Equal(t, "m", readSignal(t, conn).ID)
}

func TestHub_DisconnectRemovesSubscriber(t *testing.T) {
	h, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}
