// Package metrics provides Prometheus metrics for the prediction path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label values.
const (
	SourceInput  = "input"
	SourceStored = "stored"

	StatusSuccess = "success"
	StatusError   = "error"
)

// PredictionMetrics contains the counters and histograms recorded by the
// prediction service and the schema store. A nil *PredictionMetrics is valid
// and records nothing.
type PredictionMetrics struct {
	registry *prometheus.Registry

	predictionsTotal   *prometheus.CounterVec
	predictionDuration *prometheus.HistogramVec
	unknownCropsTotal  *prometheus.CounterVec
	schemaLoadsTotal   *prometheus.CounterVec
}

// NewPredictionMetrics creates and registers the prediction metrics.
func NewPredictionMetrics(registry *prometheus.Registry) (*PredictionMetrics, error) {
	m := &PredictionMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PredictionMetrics) initMetrics() {
	m.predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmsight_predictions_total",
			Help: "Total number of yield predictions",
		},
		[]string{"source", "status"}, // source: input, stored
	)

	m.predictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "farmsight_prediction_duration_seconds",
			Help: "Time taken by the predictor for one row",
			// 1ms to ~4s
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"predictor"},
	)

	m.unknownCropsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmsight_unknown_crops_total",
			Help: "Crop names not present in the reference vocabulary",
		},
		[]string{"policy"},
	)

	m.schemaLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmsight_schema_loads_total",
			Help: "Reference dataset schema loads",
		},
		[]string{"status"},
	)
}

// Describe implements the Collector interface
func (m *PredictionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.predictionsTotal.Describe(ch)
	m.predictionDuration.Describe(ch)
	m.unknownCropsTotal.Describe(ch)
	m.schemaLoadsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *PredictionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.predictionsTotal.Collect(ch)
	m.predictionDuration.Collect(ch)
	m.unknownCropsTotal.Collect(ch)
	m.schemaLoadsTotal.Collect(ch)
}

// RecordPrediction records one prediction attempt.
func (m *PredictionMetrics) RecordPrediction(source, status string) {
	if m == nil {
		return
	}
	m.predictionsTotal.WithLabelValues(source, status).Inc()
}

// RecordPredictionDuration records the predictor latency in seconds.
func (m *PredictionMetrics) RecordPredictionDuration(predictor string, seconds float64) {
	if m == nil {
		return
	}
	m.predictionDuration.WithLabelValues(predictor).Observe(seconds)
}

// RecordUnknownCrop counts a crop that fell outside the vocabulary.
func (m *PredictionMetrics) RecordUnknownCrop(policy string) {
	if m == nil {
		return
	}
	m.unknownCropsTotal.WithLabelValues(policy).Inc()
}

// RecordSchemaLoad counts a schema load; ok selects the status label.
func (m *PredictionMetrics) RecordSchemaLoad(ok bool) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if !ok {
		status = StatusError
	}
	m.schemaLoadsTotal.WithLabelValues(status).Inc()
}
