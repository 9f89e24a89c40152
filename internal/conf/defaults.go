// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default feature extraction values. They match the clip selection and MFCC
// setup the shipped model was trained with.
const (
	DefaultSampleRate = 22050
	DefaultOffset     = 0.5
	DefaultDuration   = 3.0
	DefaultNMFCC      = 40
	DefaultModelPath  = "model/stress_cnn.tflite"
)

// Default web server limits
const (
	DefaultMaxUploadSize = 20 // megabytes
	DefaultCacheTTL      = 10 * time.Minute
	DefaultProbeTimeout  = 5 * time.Second
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("main.name", "StressNet-Go")

	viper.SetDefault("model.path", DefaultModelPath)
	viper.SetDefault("model.threads", 0)
	viper.SetDefault("model.usexnnpack", false)
	viper.SetDefault("model.inputname", "input")
	viper.SetDefault("model.outputname", "output")
	viper.SetDefault("model.onnxlibrary", "")

	viper.SetDefault("features.samplerate", DefaultSampleRate)
	viper.SetDefault("features.offset", DefaultOffset)
	viper.SetDefault("features.duration", DefaultDuration)
	viper.SetDefault("features.nmfcc", DefaultNMFCC)

	viper.SetDefault("audio.formats", []string{"wav", "mp3"})

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.maxuploadsize", DefaultMaxUploadSize)
	viper.SetDefault("webserver.cachettl", DefaultCacheTTL)
	viper.SetDefault("webserver.probetimeout", DefaultProbeTimeout)

	viper.SetDefault("metrics.enabled", true)

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/stressnet.log")
	viper.SetDefault("logging.file_output.level", "info")
}
