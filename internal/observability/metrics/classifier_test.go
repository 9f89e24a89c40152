package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gather returns the metric families of registry keyed by name.
func gather(t *testing.T, registry *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestClassifierMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewClassifierMetrics(registry)
	require.NoError(t, err)

	m.RecordPrediction("not_stressed")
	m.RecordPrediction("not_stressed")
	m.RecordPrediction("stressed")
	m.RecordError("")
	m.RecordError("shape-mismatch")
	m.ObserveStage(StageInference, 3*time.Millisecond)
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)
	m.IncActive()
	m.IncActive()
	m.DecActive()
	m.SetModelLoaded("onnx", true)

	families := gather(t, registry)

	predictions := families["stressnet_predictions_total"]
	require.NotNil(t, predictions)
	counts := map[string]float64{}
	for _, metric := range predictions.GetMetric() {
		counts[labelValue(metric, "class")] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"not_stressed": 2, "stressed": 1}, counts)

	errs := map[string]float64{}
	for _, metric := range families["stressnet_prediction_errors_total"].GetMetric() {
		errs[labelValue(metric, "kind")] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"unknown": 1, "shape-mismatch": 1}, errs)

	cache := map[string]float64{}
	for _, metric := range families["stressnet_result_cache_lookups_total"].GetMetric() {
		cache[labelValue(metric, "result")] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{CacheHit: 1, CacheMiss: 2}, cache)

	stage := families["stressnet_stage_duration_seconds"].GetMetric()
	require.Len(t, stage, 1)
	assert.Equal(t, StageInference, labelValue(stage[0], "stage"))
	assert.Equal(t, uint64(1), stage[0].GetHistogram().GetSampleCount())

	assert.InDelta(t, 1, families["stressnet_active_processing"].GetMetric()[0].GetGauge().GetValue(), 0)
	assert.InDelta(t, 1, families["stressnet_model_loaded"].GetMetric()[0].GetGauge().GetValue(), 0)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewClassifierMetrics(registry)
	require.NoError(t, err)
	_, err = NewClassifierMetrics(registry)
	require.Error(t, err)
}
