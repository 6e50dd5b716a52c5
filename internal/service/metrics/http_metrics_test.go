package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPCollectors(t *testing.T) {
	c := NewHTTPCollectors(prometheus.NewRegistry())

	c.ObserveRequest("/api/v1/score", "POST", 200, 10*time.Millisecond)
	c.ObserveRequest("/api/v1/score", "POST", 200, 20*time.Millisecond)
	c.ObserveRequest("/api/v1/score", "POST", 400, time.Millisecond)
	c.RateLimited("/api/v1/score")
	c.WSConnected()
	c.WSConnected()
	c.WSDisconnected()
	c.WSDropped()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("/api/v1/score", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("/api/v1/score", "POST", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rateLimited.WithLabelValues("/api/v1/score")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.wsClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.wsDropped))
	assert.Equal(t, 1, testutil.CollectAndCount(c.latency))
}
