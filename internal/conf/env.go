// env.go - Environment variable configuration and validation for StressNet-Go
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. STRESSNET_MODEL_PATH.
const EnvPrefix = "STRESSNET"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "STRESSNET_DEBUG", validateEnvBool},

		{"model.path", "STRESSNET_MODEL_PATH", validateEnvModelPath},
		{"model.threads", "STRESSNET_MODEL_THREADS", validateEnvThreads},
		{"model.onnxlibrary", "STRESSNET_MODEL_ONNXLIBRARY", validateEnvPath},

		{"features.samplerate", "STRESSNET_FEATURES_SAMPLERATE", validateEnvPositiveInt},
		{"features.nmfcc", "STRESSNET_FEATURES_NMFCC", validateEnvPositiveInt},

		{"webserver.port", "STRESSNET_WEBSERVER_PORT", validateEnvPort},
		{"webserver.maxuploadsize", "STRESSNET_WEBSERVER_MAXUPLOADSIZE", validateEnvPositiveInt},

		{"metrics.enabled", "STRESSNET_METRICS_ENABLED", validateEnvBool},
		{"sentry.enabled", "STRESSNET_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "STRESSNET_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvThreads(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative integer")
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validateEnvPort(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("must be a port number between 1 and 65535")
	}
	return nil
}

// validateEnvPath rejects relative paths that escape the working directory
func validateEnvPath(value string) error {
	cleanedPath := filepath.Clean(value)
	if !filepath.IsAbs(cleanedPath) && strings.HasPrefix(cleanedPath, "..") {
		return fmt.Errorf("path traversal detected: %s", value)
	}
	return nil
}

func validateEnvModelPath(value string) error {
	if err := validateEnvPath(value); err != nil {
		return err
	}
	m := ModelSettings{Path: value}
	if m.Backend() == "" {
		return fmt.Errorf("model file must end in .tflite or .onnx")
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return bindEnvVars()
}
