package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPCollectors holds the API and websocket collectors.
type HTTPCollectors struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rateLimited *prometheus.CounterVec
	wsClients   prometheus.Gauge
	wsDropped   prometheus.Counter
}

func NewHTTPCollectors(reg prometheus.Registerer) *HTTPCollectors {
	f := promauto.With(reg)
	return &HTTPCollectors{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finsignal",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by route and status",
		}, []string{"route", "method", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "finsignal",
			Subsystem: "http",
			Name:      "latency_seconds",
			Help:      "Latency of API endpoints",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finsignal",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client limiter",
		}, []string{"route"}),
		wsClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "finsignal",
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected websocket subscribers",
		}),
		wsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "finsignal",
			Subsystem: "ws",
			Name:      "dropped_total",
			Help:      "Signals dropped for slow subscribers",
		}),
	}
}

func (c *HTTPCollectors) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (c *HTTPCollectors) RateLimited(route string) { c.rateLimited.WithLabelValues(route).Inc() }

func (c *HTTPCollectors) WSConnected() { c.wsClients.Inc() }

func (c *HTTPCollectors) WSDisconnected() { c.wsClients.Dec() }

func (c *HTTPCollectors) WSDropped() { c.wsDropped.Inc() }
