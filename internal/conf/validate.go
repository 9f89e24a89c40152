// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// SupportedFormats lists the audio formats a decoder exists for.
var SupportedFormats = []string{"wav", "mp3", "flac"}

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct and reports every problem found.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	for _, validate := range []func(*Settings) error{
		validateModelSettings,
		validateFeatureSettings,
		validateAudioSettings,
		validateWebServerSettings,
		validateSentrySettings,
	} {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateModelSettings(settings *Settings) error {
	var errs []string
	m := &settings.Model

	if m.Path == "" {
		errs = append(errs, "model path must be set")
	} else if m.Backend() == "" {
		errs = append(errs, fmt.Sprintf("unsupported model file %q, expected .tflite or .onnx", m.Path))
	}

	if m.Threads < 0 {
		errs = append(errs, "model threads must be 0 or greater")
	}

	if m.Backend() == BackendONNX && (m.InputName == "" || m.OutputName == "") {
		errs = append(errs, "onnx models require model.inputname and model.outputname")
	}

	if len(errs) > 0 {
		return fmt.Errorf("model settings errors: %v", errs)
	}
	return nil
}

func validateFeatureSettings(settings *Settings) error {
	var errs []string
	f := &settings.Features

	if f.SampleRate < 4000 || f.SampleRate > 192000 {
		errs = append(errs, "features samplerate must be between 4000 and 192000")
	}
	if f.Offset < 0 {
		errs = append(errs, "features offset must be 0 or greater")
	}
	if f.Duration <= 0 {
		errs = append(errs, "features duration must be greater than 0")
	}
	if f.NMFCC < 1 || f.NMFCC > 128 {
		errs = append(errs, "features nmfcc must be between 1 and 128")
	}

	if len(errs) > 0 {
		return fmt.Errorf("feature settings errors: %v", errs)
	}
	return nil
}

func validateAudioSettings(settings *Settings) error {
	if len(settings.Audio.Formats) == 0 {
		return fmt.Errorf("audio formats must list at least one format")
	}

	var unknown []string
	for i, format := range settings.Audio.Formats {
		format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
		settings.Audio.Formats[i] = format
		if !slices.Contains(SupportedFormats, format) {
			unknown = append(unknown, format)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unsupported audio formats %v, supported: %v", unknown, SupportedFormats)
	}
	return nil
}

func validateWebServerSettings(settings *Settings) error {
	w := &settings.WebServer
	if !w.Enabled {
		return nil
	}

	var errs []string
	if port, err := strconv.Atoi(w.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid webserver port %q", w.Port))
	}
	if w.MaxUploadSize <= 0 {
		errs = append(errs, "webserver maxuploadsize must be greater than 0")
	}
	if w.CacheTTL < 0 {
		errs = append(errs, "webserver cachettl must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("webserver settings errors: %v", errs)
	}
	return nil
}

func validateSentrySettings(settings *Settings) error {
	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		return fmt.Errorf("sentry is enabled but sentry.dsn is empty")
	}
	return nil
}
