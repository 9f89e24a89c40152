package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFileLogger builds a file-only logger in a temp dir and returns a
// function that closes it and returns the decoded JSON records.
func newFileLogger(t *testing.T, cfg *LoggingConfig) (*CentralLogger, func() []map[string]any) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "logs", "test.log")
	cfg.Console = &ConsoleOutput{Enabled: false}
	cfg.FileOutput = &FileOutput{Enabled: true, Path: path, Level: "trace"}

	cl, err := NewCentralLogger(cfg)
	require.NoError(t, err)

	return cl, func() []map[string]any {
		require.NoError(t, cl.Close())

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		var records []map[string]any
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var rec map[string]any
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
			records = append(records, rec)
		}
		require.NoError(t, scanner.Err())
		return records
	}
}

func TestNewCentralLoggerNilConfig(t *testing.T) {
	t.Parallel()

	_, err := NewCentralLogger(nil)
	require.Error(t, err)
}

func TestNewCentralLoggerInvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := NewCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)
}

func TestModuleLevels(t *testing.T) {
	t.Parallel()

	cl, records := newFileLogger(t, &LoggingConfig{
		DefaultLevel: "info",
		ModuleLevels: map[string]string{"audio": "debug"},
	})

	cl.Module("audio").Debug("audio debug")
	cl.Module("audio").Module("wav").Debug("wav debug")
	cl.Module("classifier").Debug("classifier debug")
	cl.Module("classifier").Info("classifier info")

	got := records()
	require.Len(t, got, 3)
	assert.Equal(t, "audio debug", got[0]["msg"])
	assert.Equal(t, "audio.wav", got[1]["module"])
	assert.Equal(t, "classifier info", got[2]["msg"])
	assert.Equal(t, "classifier", got[2]["module"])
}

func TestFieldsAndTraceID(t *testing.T) {
	t.Parallel()

	cl, records := newFileLogger(t, &LoggingConfig{DefaultLevel: "debug"})

	ctx := WithTraceID(t.Context(), "req-123")
	log := cl.Module("http").With(String("route", "/")).WithContext(ctx)
	log.Info("request",
		Int("status", 200),
		Float64("score", 0.123456),
		Float32("confidence", 0.87654),
		Bool("cached", true),
		Duration("elapsed", 1500*time.Millisecond),
		Error(errors.New("boom")))

	got := records()
	require.Len(t, got, 1)
	rec := got[0]
	assert.Equal(t, "req-123", rec["trace_id"])
	assert.Equal(t, "/", rec["route"])
	assert.InDelta(t, 200, rec["status"], 0)
	assert.InDelta(t, 0.123, rec["score"], 1e-9)
	assert.InDelta(t, 0.877, rec["confidence"], 1e-9)
	assert.Equal(t, true, rec["cached"])
	assert.Equal(t, "1.5s", rec["elapsed"])
	assert.Equal(t, "boom", rec["error"])
}

func TestLogExplicitLevelRespectsModuleLevel(t *testing.T) {
	t.Parallel()

	cl, records := newFileLogger(t, &LoggingConfig{DefaultLevel: "warn"})

	log := cl.Module("mfcc")
	log.Log(LogLevelInfo, "dropped")
	log.Log(LogLevelError, "kept")

	got := records()
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0]["msg"])
}

func TestWithDoesNotMutateParent(t *testing.T) {
	t.Parallel()

	parent := &moduleLogger{module: "p", fields: make([]Field, 0, 4)}
	child, ok := parent.With(String("a", "1")).(*moduleLogger)
	require.True(t, ok)

	assert.Empty(t, parent.fields)
	assert.Len(t, child.fields, 1)
}

func TestTextHandlerFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := &moduleLogger{
		module: "audio",
		logger: slog.New(newTextHandler(&buf, traceLevelValue, time.UTC)),
		level:  traceLevelValue,
	}

	log.Trace("tick")
	out := buf.String()

	assert.Contains(t, out, "level=TRACE")
	assert.Contains(t, out, "module=audio")
	assert.NotContains(t, out, "time=")
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"trace":   traceLevelValue,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestTraceIDContext(t *testing.T) {
	t.Parallel()

	assert.Empty(t, getTraceIDFromContext(t.Context()))
	assert.Equal(t, "x", getTraceIDFromContext(WithTraceID(t.Context(), "x")))
}

func TestFanoutHandlerRespectsPerHandlerLevel(t *testing.T) {
	t.Parallel()

	var textBuf, jsonBuf bytes.Buffer
	handler := newMultiWriterHandler(
		newTextHandler(&textBuf, slog.LevelWarn, time.UTC),
		slog.NewJSONHandler(&jsonBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	log := slog.New(handler).With("module", "http")

	log.Debug("debug only in json")
	log.Warn("everywhere")

	assert.NotContains(t, textBuf.String(), "debug only in json")
	assert.Contains(t, textBuf.String(), "everywhere")
	assert.Contains(t, jsonBuf.String(), "debug only in json")
	assert.Contains(t, jsonBuf.String(), `"module":"http"`)
}
