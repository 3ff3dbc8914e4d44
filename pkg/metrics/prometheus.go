package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecasts       *prometheus.CounterVec
	anomalies       *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		forecasts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunicast_forecasts_total",
				Help: "Forecasts served per symbol",
			},
			[]string{"symbol"},
		),
		anomalies: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunicast_anomalies_total",
				Help: "Anomaly events detected per symbol and rule",
			},
			[]string{"symbol", "kind"},
		),
		recommendations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunicast_recommendations_total",
				Help: "Recommendations issued per symbol and action",
			},
			[]string{"symbol", "action"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunicast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tunicast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordForecast records a served forecast.
func (r *Recorder) RecordForecast(symbol string) {
	r.forecasts.WithLabelValues(symbol).Inc()
}

// RecordAnomaly records a detected anomaly event.
func (r *Recorder) RecordAnomaly(symbol, kind string) {
	r.anomalies.WithLabelValues(symbol, kind).Inc()
}

// RecordRecommendation records an issued recommendation.
func (r *Recorder) RecordRecommendation(symbol, action string) {
	r.recommendations.WithLabelValues(symbol, action).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
