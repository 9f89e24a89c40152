package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewMetricsConcurrency verifies that NewMetrics can be called concurrently,
// each call owning a private registry.
func TestNewMetricsConcurrency(t *testing.T) {
	t.Parallel()

	const numGoroutines = 20

	var wg sync.WaitGroup
	for range numGoroutines {
		wg.Go(func() {
			m, err := NewMetrics()
			if !assert.NoError(t, err) {
				return
			}
			assert.NotNil(t, m.Registry())
			assert.NotNil(t, m.Classifier)
			assert.NotNil(t, m.HTTP)
		})
	}
	wg.Wait()
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Classifier.RecordPrediction("stressed")
	m.Classifier.RecordError("audio-decode")
	m.Classifier.ObserveStage("features", 12*time.Millisecond)
	m.Classifier.SetModelLoaded("tflite", true)
	m.HTTP.RecordRequest(http.MethodPost, "/api/v1/predict", http.StatusOK, 30*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `stressnet_predictions_total{class="stressed"} 1`)
	assert.Contains(t, text, `stressnet_prediction_errors_total{kind="audio-decode"} 1`)
	assert.Contains(t, text, `stressnet_model_loaded{backend="tflite"} 1`)
	assert.Contains(t, text, `http_requests_total{method="POST",path="/api/v1/predict",status_code="200"} 1`)
	assert.Contains(t, text, "stressnet_stage_duration_seconds_bucket")
	assert.Contains(t, text, "go_goroutines")
}
