package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClassifierMetrics contains all Prometheus metrics related to predictions.
type ClassifierMetrics struct {
	PredictionTotal  *prometheus.CounterVec
	PredictionErrors *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec

	ActiveProcessingGauge prometheus.Gauge
	ModelLoadedGauge      *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewClassifierMetrics creates and registers classifier metrics on registry.
func NewClassifierMetrics(registry *prometheus.Registry) (*ClassifierMetrics, error) {
	m := &ClassifierMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register classifier metrics: %w", err)
	}
	return m, nil
}

func (m *ClassifierMetrics) initMetrics() {
	m.PredictionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stressnet_predictions_total",
			Help: "Total number of completed predictions partitioned by class.",
		},
		[]string{"class"},
	)

	m.PredictionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stressnet_prediction_errors_total",
			Help: "Total number of failed predictions partitioned by failure kind.",
		},
		[]string{"kind"},
	)

	m.StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stressnet_stage_duration_seconds",
			Help:    "Time spent in each prediction pipeline stage.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"stage"},
	)

	m.CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stressnet_result_cache_lookups_total",
			Help: "Prediction result cache lookups partitioned by result.",
		},
		[]string{"result"},
	)

	m.ActiveProcessingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stressnet_active_processing",
			Help: "Number of predictions currently being processed.",
		},
	)

	m.ModelLoadedGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stressnet_model_loaded",
			Help: "Whether the classifier model is loaded (1) or not (0), by backend.",
		},
		[]string{"backend"},
	)
}

// RecordPrediction counts a successful prediction of the given class slug.
func (m *ClassifierMetrics) RecordPrediction(class string) {
	m.PredictionTotal.WithLabelValues(class).Inc()
}

// RecordError counts a failed prediction of the given kind.
func (m *ClassifierMetrics) RecordError(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.PredictionErrors.WithLabelValues(kind).Inc()
}

// ObserveStage records how long a pipeline stage took.
func (m *ClassifierMetrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordCacheLookup counts a result cache hit or miss.
func (m *ClassifierMetrics) RecordCacheLookup(hit bool) {
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// IncActive marks the start of a prediction.
func (m *ClassifierMetrics) IncActive() { m.ActiveProcessingGauge.Inc() }

// DecActive marks the end of a prediction.
func (m *ClassifierMetrics) DecActive() { m.ActiveProcessingGauge.Dec() }

// SetModelLoaded sets the model loaded gauge for backend.
func (m *ClassifierMetrics) SetModelLoaded(backend string, loaded bool) {
	v := 0.0
	if loaded {
		v = 1
	}
	m.ModelLoadedGauge.WithLabelValues(backend).Set(v)
}

// Describe implements the prometheus.Collector interface.
func (m *ClassifierMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.PredictionTotal.Describe(ch)
	m.PredictionErrors.Describe(ch)
	m.StageDuration.Describe(ch)
	m.CacheLookups.Describe(ch)
	ch <- m.ActiveProcessingGauge.Desc()
	m.ModelLoadedGauge.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *ClassifierMetrics) Collect(ch chan<- prometheus.Metric) {
	m.PredictionTotal.Collect(ch)
	m.PredictionErrors.Collect(ch)
	m.StageDuration.Collect(ch)
	m.CacheLookups.Collect(ch)
	ch <- m.ActiveProcessingGauge
	m.ModelLoadedGauge.Collect(ch)
}
