// config.go: settings struct for StressNet-Go and the functions that load it.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/stressnet-go/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// ModelSettings describes the serialized classifier loaded at startup.
type ModelSettings struct {
	Path        string `yaml:"path"`        // .tflite or .onnx model file
	Threads     int    `yaml:"threads"`     // interpreter threads, 0 uses all cores
	UseXNNPACK  bool   `yaml:"usexnnpack"`  // TFLite only: use the XNNPACK delegate
	InputName   string `yaml:"inputname"`   // ONNX only: input tensor name
	OutputName  string `yaml:"outputname"`  // ONNX only: output tensor name
	ONNXLibrary string `yaml:"onnxlibrary"` // ONNX only: path to the onnxruntime shared library
}

// Backend returns the inference backend implied by the model file extension.
func (m *ModelSettings) Backend() string {
	switch strings.ToLower(filepath.Ext(m.Path)) {
	case ".tflite":
		return BackendTFLite
	case ".onnx":
		return BackendONNX
	default:
		return ""
	}
}

// FeatureSettings controls clip selection and MFCC extraction.
type FeatureSettings struct {
	SampleRate int     `yaml:"samplerate"` // target rate after resampling
	Offset     float64 `yaml:"offset"`     // seconds skipped from the start of the clip
	Duration   float64 `yaml:"duration"`   // seconds analysed after the offset
	NMFCC      int     `yaml:"nmfcc"`      // number of cepstral coefficients
}

// OffsetDuration returns Offset as a time.Duration.
func (f *FeatureSettings) OffsetDuration() time.Duration {
	return time.Duration(f.Offset * float64(time.Second))
}

// ClipDuration returns Duration as a time.Duration.
func (f *FeatureSettings) ClipDuration() time.Duration {
	return time.Duration(f.Duration * float64(time.Second))
}

// AudioSettings lists the accepted upload formats.
type AudioSettings struct {
	Formats []string `yaml:"formats"` // lower-case extensions without dot
}

// WebServerSettings contains settings for the web server.
type WebServerSettings struct {
	Enabled       bool          `yaml:"enabled"`
	Port          string        `yaml:"port"`
	MaxUploadSize int           `yaml:"maxuploadsize"` // megabytes
	CacheTTL      time.Duration `yaml:"cachettl"`      // prediction cache lifetime, 0 disables
	ProbeTimeout  time.Duration `yaml:"probetimeout"`  // image reachability probe timeout
}

// MaxUploadBytes returns the request body limit in bytes.
func (w *WebServerSettings) MaxUploadBytes() int64 {
	return int64(w.MaxUploadSize) << 20
}

// MetricsSettings toggles the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool `yaml:"enabled"`
}

// SentrySettings controls optional error telemetry.
type SentrySettings struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Settings contains all configuration options for StressNet-Go.
type Settings struct {
	Debug bool `yaml:"debug"`

	Main struct {
		Name string `yaml:"name"` // instance name shown on the page and in logs
	} `yaml:"main"`

	Model     ModelSettings        `yaml:"model"`
	Features  FeatureSettings      `yaml:"features"`
	Audio     AudioSettings        `yaml:"audio"`
	WebServer WebServerSettings    `yaml:"webserver"`
	Metrics   MetricsSettings      `yaml:"metrics"`
	Sentry    SentrySettings       `yaml:"sentry"`
	Logging   logger.LoggingConfig `yaml:"logging"`
}

// Inference backends
const (
	BackendTFLite = "tflite"
	BackendONNX   = "onnx"
)

// configFile is an explicit config file path set with SetConfigFile.
var configFile string

// SetConfigFile makes Load read the given file instead of searching the default paths.
func SetConfigFile(path string) {
	configFile = path
}

// Load reads the configuration file and environment variables into a new Settings.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		// Bad environment values are reported but do not stop startup,
		// validation of the final settings catches what matters
		GetLogger().Warn("environment variable issues", logger.Error(err))
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("fatal error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config into dir and reads it.
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	defaultConfig, err := getDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, defaultConfig, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded config: %w", err)
	}
	return data, nil
}
