package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FinSignal/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsEmitted *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastScore      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
	qualityIssues  *prometheus.CounterVec
}

// New registers the recorder's collectors on reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		signalsEmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_signals_emitted_total",
				Help: "Trading signals emitted by symbol and signal type",
			},
			[]string{"symbol", "signal"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finsignal_last_score",
				Help: "Last normalized sentiment score (0-100) per symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsignal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		qualityIssues: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_input_quality_issues_total",
				Help: "Sanitized input values by issue kind",
			},
			[]string{"kind"},
		),
	}
}

func (r *Recorder) RecordSignal(symbol string, signal models.SignalType) {
	r.signalsEmitted.WithLabelValues(symbol, string(signal)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordScore(symbol string, normalized float64) {
	r.lastScore.WithLabelValues(symbol).Set(normalized)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordQualityIssue(kind models.QualityKind) {
	r.qualityIssues.WithLabelValues(string(kind)).Inc()
}
