// Package observability provides metrics collectors for the CalorieTrack-Go application.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry

	predictionsLoggedTotal prometheus.Counter
	predictionFailuresVec  *prometheus.CounterVec
	processingTimeHist     prometheus.Histogram

	broadcastEventsTotal  prometheus.Counter
	broadcastDroppedTotal prometheus.Counter
	broadcastObservers    prometheus.Gauge
}

// NewMetrics creates a new instance of Metrics, initializing and registering
// all metric collectors on a dedicated registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		predictionsLoggedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calorietrack_predictions_logged_total",
			Help: "Total number of prediction events durably recorded",
		}),
		predictionFailuresVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calorietrack_prediction_log_failures_total",
			Help: "Total number of prediction logging attempts that failed",
		}, []string{"reason"}),
		processingTimeHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "calorietrack_prediction_processing_time_ms",
			Help:    "Inference processing time of logged predictions in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		broadcastEventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calorietrack_broadcast_events_total",
			Help: "Total number of events published to the broadcast hub",
		}),
		broadcastDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calorietrack_broadcast_dropped_total",
			Help: "Total number of per-observer deliveries dropped due to backpressure",
		}),
		broadcastObservers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "calorietrack_broadcast_observers",
			Help: "Current number of connected observers",
		}),
	}

	collectors := []prometheus.Collector{
		m.predictionsLoggedTotal,
		m.predictionFailuresVec,
		m.processingTimeHist,
		m.broadcastEventsTotal,
		m.broadcastDroppedTotal,
		m.broadcastObservers,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register metrics collector: %w", err)
		}
	}

	return m, nil
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordPredictionLogged increments the logged prediction counter and
// observes its processing time.
func (m *Metrics) RecordPredictionLogged(processingTimeMs float64) {
	if m == nil {
		return
	}
	m.predictionsLoggedTotal.Inc()
	m.processingTimeHist.Observe(processingTimeMs)
}

// RecordPredictionFailure increments the logging failure counter.
func (m *Metrics) RecordPredictionFailure(reason string) {
	if m == nil {
		return
	}
	m.predictionFailuresVec.WithLabelValues(reason).Inc()
}

// RecordBroadcast increments the published event counter.
func (m *Metrics) RecordBroadcast() {
	if m == nil {
		return
	}
	m.broadcastEventsTotal.Inc()
}

// RecordBroadcastDrop increments the dropped delivery counter.
func (m *Metrics) RecordBroadcastDrop() {
	if m == nil {
		return
	}
	m.broadcastDroppedTotal.Inc()
}

// SetObserverCount sets the connected observer gauge.
func (m *Metrics) SetObserverCount(n int) {
	if m == nil {
		return
	}
	m.broadcastObservers.Set(float64(n))
}
