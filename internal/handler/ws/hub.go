package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"
)

// ClientObserver tracks subscriber counts and drops.
type ClientObserver interface {
	WSConnected()
	WSDisconnected()
	WSDropped()
}

type subscriber struct {
	conn   *websocket.Conn
	send   chan []byte
	symbol string
}

// Hub pushes every emitted signal to connected websocket subscribers. A subscriber
// may narrow the feed with ?symbol=. Slow subscribers lose messages rather than
// stalling the pipeline.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*subscriber]struct{}
	upgrader websocket.Upgrader
	log      *applogger.Logger
	obs      ClientObserver

	pingInterval time.Duration
	writeWait    time.Duration
	sendBuffer   int
}

var _ domrepo.Broadcaster = (*Hub)(nil)

type Option func(*Hub)

func WithObserver(o ClientObserver) Option {
	return func(h *Hub) { h.obs = o }
}

func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

func NewHub(log *applogger.Logger, opts ...Option) *Hub {
	if log == nil {
		log = applogger.Nop()
	}
	h := &Hub{
		clients: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:          log,
		pingInterval: 30 * time.Second,
		writeWait:    5 * time.Second,
		sendBuffer:   64,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/signals", h.Serve)
}

// Serve upgrades the request and blocks until the subscriber disconnects.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", applogger.Error(err))
		return nil
	}
	sub := &subscriber{
		conn:   conn,
		send:   make(chan []byte, h.sendBuffer),
		symbol: strings.ToUpper(strings.TrimSpace(c.QueryParam("symbol"))),
	}
	h.add(sub)
	defer h.remove(sub)

	done := make(chan struct{})
	go h.writeLoop(sub, done)
	h.readLoop(sub)
	close(done)
	return nil
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	h.clients[s] = struct{}{}
	h.mu.Unlock()
	if h.obs != nil {
		h.obs.WSConnected()
	}
	h.log.Debug("websocket subscriber connected", applogger.String("symbol", s.symbol))
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	_, ok := h.clients[s]
	delete(h.clients, s)
	h.mu.Unlock()
	if !ok {
		return
	}
	_ = s.conn.Close()
	if h.obs != nil {
		h.obs.WSDisconnected()
	}
}

// readLoop discards client frames; it exists to process pongs and notice closes.
func (h *Hub) readLoop(s *subscriber) {
	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(s *subscriber, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case b := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = s.conn.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}

func (h *Hub) Broadcast(sig models.TradingSignal) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}
	b, err := json.Marshal(sig)
	if err != nil {
		h.log.Error("websocket encode failed", applogger.Error(err))
		return
	}
	for s := range h.clients {
		if s.symbol != "" && s.symbol != strings.ToUpper(sig.Symbol) {
			continue
		}
		select {
		case s.send <- b:
		default:
			if h.obs != nil {
				h.obs.WSDropped()
			}
		}
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.clients))
	for s := range h.clients {
		subs = append(subs, s)
	}
	h.mu.RUnlock()
	for _, s := range subs {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
			time.Now().Add(h.writeWait))
		_ = s.conn.Close()
	}
}
