package kafka

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type clientMetrics struct {
	published *prometheus.CounterVec
	pubBytes  *prometheus.CounterVec
	pubTime   *prometheus.HistogramVec
	handled   *prometheus.CounterVec
	handle    *prometheus.HistogramVec
	queue     *prometheus.GaugeVec
	dlq       *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsReg  prometheus.Registerer = prometheus.DefaultRegisterer
	m           *clientMetrics
)

// SetMetricsRegisterer must be called before the first producer or consumer is built.
func SetMetricsRegisterer(reg prometheus.Registerer) {
	if reg != nil {
		metricsReg = reg
	}
}

func kafkaMetrics() *clientMetrics {
	metricsOnce.Do(func() {
		m = &clientMetrics{
			published: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "finsignal_kafka_producer_messages_total",
				Help: "Messages published to Kafka by result",
			}, []string{"topic", "result"}),
			pubBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "finsignal_kafka_producer_bytes_total",
				Help: "Payload bytes published",
			}, []string{"topic"}),
			pubTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "finsignal_kafka_producer_publish_seconds",
				Help:    "Publish latency",
				Buckets: prometheus.DefBuckets,
			}, []string{"topic"}),
			handled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "finsignal_kafka_consumer_messages_total",
				Help: "Consumed messages by result",
			}, []string{"topic", "result"}),
			handle: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "finsignal_kafka_consumer_handle_seconds",
				Help:    "Handling time per message including retries",
				Buckets: prometheus.DefBuckets,
			}, []string{"topic"}),
			queue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "finsignal_kafka_consumer_queue_depth",
				Help: "Messages waiting for a worker",
			}, []string{"topic"}),
			dlq: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "finsignal_kafka_consumer_dlq_total",
				Help: "Messages routed to the dead-letter topic",
			}, []string{"topic"}),
		}
		for _, c := range []prometheus.Collector{m.published, m.pubBytes, m.pubTime, m.handled, m.handle, m.queue, m.dlq} {
			if err := metricsReg.Register(c); err != nil {
				if _, dup := err.(prometheus.AlreadyRegisteredError); !dup {
					panic(err)
				}
			}
		}
	})
	return m
}

func (cm *clientMetrics) observePublish(topic string, bytes int64, count int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cm.published.WithLabelValues(topic, result).Add(float64(count))
	if err == nil {
		cm.pubBytes.WithLabelValues(topic).Add(float64(bytes))
	}
	cm.pubTime.WithLabelValues(topic).Observe(d.Seconds())
}
