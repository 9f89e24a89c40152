package httpcontroller

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/stressnet-go/internal/classifier"
)

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, testSettings(), false)

	rec := ts.get("/health")
	generated := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, generated, 36, "expected a UUID")

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set(echo.HeaderXRequestID, "client-supplied")
	rec = httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", rec.Header().Get(echo.HeaderXRequestID))
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, testSettings(), false)
	rec := ts.get("/")

	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get(echo.HeaderXFrameOptions))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentSecurityPolicy), "media-src data:")
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.WebServer.MaxUploadSize = 1
	ts := newTestServer(t, settings, false)

	rec := ts.upload(t, "/api/v1/predict", uploadField, "big.wav", bytes.Repeat([]byte{0}, 2<<20))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, ts.model.calls.Load()-1, "only the warm-up inference may run")
}

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, testSettings(), true)
	ts.get("/health")
	ts.get("/health")

	body := ts.get("/metrics").Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="/health",status_code="200"} 2`)
	assert.Contains(t, body, `http_request_duration_seconds_count{method="GET",path="/health"} 2`)
}

func TestResponseStatus(t *testing.T) {
	t.Parallel()

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", http.NoBody), httptest.NewRecorder())
	c.Response().Status = http.StatusAccepted

	assert.Equal(t, http.StatusAccepted, responseStatus(c, nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, responseStatus(c, echo.ErrStatusRequestEntityTooLarge))
	assert.Equal(t, http.StatusInternalServerError, responseStatus(c, errors.New("boom")))
}

func TestResultCache(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		var rc *resultCache
		rc.set("k", &classifier.Prediction{})
		_, ok := rc.get("k")
		assert.False(t, ok)
		assert.Zero(t, rc.len())
		assert.Nil(t, newResultCache(0))
	})

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()
		rc := newResultCache(time.Minute)
		p := &classifier.Prediction{Class: classifier.Stressed, Index: 1}
		rc.set("k", p)
		got, ok := rc.get("k")
		require.True(t, ok)
		assert.Same(t, p, got)
		assert.Equal(t, 1, rc.len())
	})
}

func TestResultKey(t *testing.T) {
	t.Parallel()

	a := resultKey([]byte("clip"), "wav")
	assert.Equal(t, a, resultKey([]byte("clip"), "wav"))
	assert.NotEqual(t, a, resultKey([]byte("clip"), "mp3"))
	assert.NotEqual(t, a, resultKey([]byte("clip2"), "wav"))
	assert.Regexp(t, `^wav:[0-9a-f]{64}$`, a)
}
