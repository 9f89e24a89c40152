package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validSettings returns settings equal to the shipped defaults.
func validSettings() *Settings {
	s := &Settings{}
	s.Main.Name = "StressNet-Go"
	s.Model = ModelSettings{Path: DefaultModelPath, InputName: "input", OutputName: "output"}
	s.Features = FeatureSettings{SampleRate: DefaultSampleRate, Offset: DefaultOffset, Duration: DefaultDuration, NMFCC: DefaultNMFCC}
	s.Audio.Formats = []string{"wav", "mp3"}
	s.WebServer = WebServerSettings{Enabled: true, Port: "8080", MaxUploadSize: 20, CacheTTL: 10 * time.Minute}
	return s
}

// loadFromFile runs Load against a temporary config file with a clean viper.
func loadFromFile(t *testing.T, yaml string) (*Settings, error) {
	t.Helper()

	viper.Reset()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	SetConfigFile(path)
	t.Cleanup(func() {
		SetConfigFile("")
		viper.Reset()
	})

	return Load()
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"defaults", func(*Settings) {}, ""},
		{"onnx model", func(s *Settings) { s.Model.Path = "model/stress.onnx" }, ""},
		{"unknown model extension", func(s *Settings) { s.Model.Path = "model/stress.h5" }, "unsupported model file"},
		{"empty model path", func(s *Settings) { s.Model.Path = "" }, "model path must be set"},
		{"onnx without names", func(s *Settings) {
			s.Model.Path = "m.onnx"
			s.Model.InputName = ""
		}, "inputname"},
		{"zero nmfcc", func(s *Settings) { s.Features.NMFCC = 0 }, "nmfcc"},
		{"negative offset", func(s *Settings) { s.Features.Offset = -1 }, "offset"},
		{"zero duration", func(s *Settings) { s.Features.Duration = 0 }, "duration"},
		{"unsupported format", func(s *Settings) { s.Audio.Formats = []string{"ogg"} }, "unsupported audio formats"},
		{"no formats", func(s *Settings) { s.Audio.Formats = nil }, "at least one format"},
		{"bad port", func(s *Settings) { s.WebServer.Port = "http" }, "invalid webserver port"},
		{"disabled server skips port", func(s *Settings) {
			s.WebServer.Enabled = false
			s.WebServer.Port = "http"
		}, ""},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, "sentry.dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)

			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateSettingsCollectsAllErrors(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Model.Path = ""
	s.Features.NMFCC = 0
	s.WebServer.Port = "0"

	var ve ValidationError
	require.ErrorAs(t, ValidateSettings(s), &ve)
	assert.Len(t, ve.Errors, 3)
}

func TestValidateAudioSettingsNormalizesFormats(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Audio.Formats = []string{" .WAV", "Mp3", "flac"}

	require.NoError(t, ValidateSettings(s))
	assert.Equal(t, []string{"wav", "mp3", "flac"}, s.Audio.Formats)
}

func TestModelBackend(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"model/stress_cnn.tflite": BackendTFLite,
		"MODEL.TFLITE":            BackendTFLite,
		"stress.onnx":             BackendONNX,
		"stress.h5":               "",
		"":                        "",
	}
	for path, want := range tests {
		m := ModelSettings{Path: path}
		assert.Equal(t, want, m.Backend(), path)
	}
}

func TestFeatureDurations(t *testing.T) {
	t.Parallel()

	f := FeatureSettings{Offset: 0.5, Duration: 3}
	assert.Equal(t, 500*time.Millisecond, f.OffsetDuration())
	assert.Equal(t, 3*time.Second, f.ClipDuration())

	w := WebServerSettings{MaxUploadSize: 20}
	assert.Equal(t, int64(20*1024*1024), w.MaxUploadBytes())
}

// Load mutates the global viper instance, so the tests below are not parallel.

func TestLoadFromFile(t *testing.T) {
	settings, err := loadFromFile(t, `
model:
  path: models/custom.tflite
  threads: 2
features:
  nmfcc: 20
audio:
  formats: [wav, flac]
webserver:
  port: "9090"
  cachettl: 30s
logging:
  default_level: debug
  file_output:
    enabled: true
    path: /tmp/stressnet.log
`)
	require.NoError(t, err)

	assert.Equal(t, "models/custom.tflite", settings.Model.Path)
	assert.Equal(t, 2, settings.Model.Threads)
	assert.Equal(t, 20, settings.Features.NMFCC)
	// Unset keys keep their defaults
	assert.Equal(t, DefaultSampleRate, settings.Features.SampleRate)
	assert.InDelta(t, DefaultOffset, settings.Features.Offset, 1e-9)
	assert.Equal(t, []string{"wav", "flac"}, settings.Audio.Formats)
	assert.Equal(t, "9090", settings.WebServer.Port)
	assert.Equal(t, 30*time.Second, settings.WebServer.CacheTTL)
	assert.Equal(t, 20, settings.WebServer.MaxUploadSize)
	assert.Equal(t, "debug", settings.Logging.DefaultLevel)
	require.NotNil(t, settings.Logging.FileOutput)
	assert.True(t, settings.Logging.FileOutput.Enabled)
	assert.Equal(t, "/tmp/stressnet.log", settings.Logging.FileOutput.Path)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("STRESSNET_MODEL_PATH", "models/env.onnx")
	t.Setenv("STRESSNET_WEBSERVER_PORT", "7070")

	settings, err := loadFromFile(t, "debug: false\n")
	require.NoError(t, err)

	assert.Equal(t, "models/env.onnx", settings.Model.Path)
	assert.Equal(t, BackendONNX, settings.Model.Backend())
	assert.Equal(t, "7070", settings.WebServer.Port)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	_, err := loadFromFile(t, "features:\n  nmfcc: 0\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nmfcc")
}

func TestEmbeddedDefaultConfigIsValid(t *testing.T) {
	data, err := getDefaultConfig()
	require.NoError(t, err)

	settings, err := loadFromFile(t, string(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultModelPath, settings.Model.Path)
	assert.Equal(t, 10*time.Minute, settings.WebServer.CacheTTL)
}

func TestEnvValidators(t *testing.T) {
	t.Parallel()

	require.NoError(t, validateEnvPort("8080"))
	require.Error(t, validateEnvPort("70000"))
	require.NoError(t, validateEnvBool("true"))
	require.Error(t, validateEnvBool("yes please"))
	require.NoError(t, validateEnvModelPath("model/a.onnx"))
	require.Error(t, validateEnvModelPath("model/a.pb"))
	require.Error(t, validateEnvPath("../../etc/passwd"))
}
