package errors

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureReporter struct {
	mu     sync.Mutex
	errors []*EnhancedError
}

func (c *captureReporter) ReportError(ee *EnhancedError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, ee)
}

func (c *captureReporter) IsEnabled() bool { return true }

func (c *captureReporter) reported() []*EnhancedError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*EnhancedError(nil), c.errors...)
}

// Tests touching the global reporter are not parallel.

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.IsReported())
}

func TestFastPathInheritsCategory(t *testing.T) {
	SetTelemetryReporter(nil)

	inner := New(fmt.Errorf("bad header")).Category(CategoryAudioDecode).Build()
	outer := New(fmt.Errorf("classify: %w", inner)).Component("classifier").Build()

	assert.Equal(t, CategoryAudioDecode, outer.Category)
	assert.Equal(t, "classifier", outer.GetComponent())
	assert.True(t, IsCategory(outer, CategoryAudioDecode))
}

func TestBuildReportsWhenReporterActive(t *testing.T) {
	reporter := &captureReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(fmt.Errorf("tensor invoke failed")).
		Component("classifier").
		Timing("predict", 15*time.Millisecond).
		Build()

	require.Len(t, reporter.reported(), 1)
	assert.Equal(t, CategoryInference, ee.Category)
	assert.Equal(t, "predict", ee.GetContext()["operation"])
	assert.Equal(t, int64(15), ee.GetContext()["duration_ms"])
}

func TestDetectCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		component string
		want      ErrorCategory
	}{
		{"model load", fmt.Errorf("failed to load model"), "", CategoryModelLoad},
		{"model init", fmt.Errorf("cannot create model interpreter"), "", CategoryModelInit},
		{"shape", fmt.Errorf("feature shape mismatch"), "", CategoryShapeMismatch},
		{"tensor", fmt.Errorf("output tensor missing"), "", CategoryInference},
		{"decode", fmt.Errorf("decode failed"), "", CategoryAudioDecode},
		{"component fallback", fmt.Errorf("boom"), "mfcc", CategoryFeature},
		{"generic", fmt.Errorf("boom"), "", CategoryGeneric},
		{"nil", nil, "", CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectCategory(tt.err, tt.component))
		})
	}
}

func TestPriorityNormalization(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PriorityHigh, New(fmt.Errorf("x")).Priority(PriorityHigh).Build().GetPriority())
	assert.Equal(t, PriorityMedium, New(fmt.Errorf("x")).Priority("urgent").Build().GetPriority())
	assert.Empty(t, New(fmt.Errorf("x")).Build().GetPriority())
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ee := New(fmt.Errorf("x")).
		ModelContext("model/stress_cnn.tflite", "tflite").
		AudioContext("WAV", 4096).
		Build()

	ctx := ee.GetContext()
	assert.Equal(t, "tflite", ctx["model_extension"])
	assert.Equal(t, "tflite", ctx["model_backend"])
	assert.Equal(t, "wav", ctx["audio_format"])
	assert.Equal(t, "small", ctx["audio_size_category"])

	// Returned map is a copy
	ctx["audio_format"] = "mp3"
	assert.Equal(t, "wav", ee.GetContext()["audio_format"])
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ErrorCategory(""), CategoryOf(nil))
	assert.Equal(t, CategoryGeneric, CategoryOf(fmt.Errorf("plain")))

	shape := New(fmt.Errorf("got 39 features")).Category(CategoryShapeMismatch).Build()
	assert.Equal(t, CategoryShapeMismatch, CategoryOf(fmt.Errorf("wrapped: %w", shape)))
}

func TestEnhancedErrorIs(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("sentinel")
	ee := New(fmt.Errorf("wrap: %w", sentinel)).Category(CategoryAudioDecode).Build()

	assert.ErrorIs(t, ee, sentinel)
	assert.ErrorIs(t, ee, &EnhancedError{Category: CategoryAudioDecode})
	assert.NotErrorIs(t, ee, &EnhancedError{Category: CategoryInference})
}

func TestGenerateErrorTitle(t *testing.T) {
	t.Parallel()

	ee := New(fmt.Errorf("x")).
		Component("classifier").
		Category(CategoryShapeMismatch).
		Context("operation", "validate_input").
		Build()

	assert.Equal(t, "Classifier Shape Mismatch Error Validate Input", generateErrorTitle(ee))
}

func TestBasicURLScrub(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		contains string
		absent   []string
	}{
		{
			name:     "query string",
			input:    "Error at https://api.example.com?api_key=secret123&token=abc",
			contains: "https://api.example.com?[REDACTED]",
			absent:   []string{"secret123", "abc"},
		},
		{
			name:     "bare api key",
			input:    "Config error: api_key=secret123 is invalid",
			contains: "[API_KEY_REDACTED]",
			absent:   []string{"secret123"},
		},
		{
			name:     "tokens",
			input:    "Auth failed with token=abc123 and auth=xyz789",
			contains: "[API_KEY_REDACTED]",
			absent:   []string{"abc123", "xyz789"},
		},
		{
			name:     "inline audio",
			input:    "render failed for data:audio/wav;base64,UklGRiQAAABXQVZF",
			contains: "data:[AUDIO_REDACTED]",
			absent:   []string{"UklGRiQAAABXQVZF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := basicURLScrub(tt.input)
			assert.Contains(t, got, tt.contains)
			for _, s := range tt.absent {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestInitSentryRejectsEmptyDSN(t *testing.T) {
	err := InitSentry("", "test")
	require.Error(t, err)
	assert.Nil(t, GetTelemetryReporter())
}
