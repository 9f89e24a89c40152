package myaudio

import (
	"fmt"

	"github.com/tphakala/stressnet-go/internal/errors"
)

// Sentinel errors for audio loading. Returned errors wrap these, test with errors.Is.
var (
	// ErrUnsupportedFormat is returned for an unknown or disabled format hint
	ErrUnsupportedFormat = errors.NewStd("unsupported audio format")

	// ErrAudioTooShort is returned when the clip ends before the configured offset
	ErrAudioTooShort = errors.NewStd("audio is shorter than the analysis offset")

	// ErrEmptyAudio is returned when a decoder yields no samples at all
	ErrEmptyAudio = errors.NewStd("audio contains no samples")

	// ErrInvalidAudio is returned when the bytes cannot be decoded as the hinted format
	ErrInvalidAudio = errors.NewStd("invalid audio data")
)

// decodeError wraps cause as an audio decode error for the given format.
func decodeError(cause error, format, operation string, size int) error {
	return errors.New(cause).
		Component("audio").
		Category(errors.CategoryAudioDecode).
		AudioContext(format, size).
		Context("operation", operation).
		Build()
}

// invalidAudio returns a decode error wrapping ErrInvalidAudio with a reason.
func invalidAudio(format, operation string, size int, reason string, args ...any) error {
	cause := fmt.Errorf("%w: %s", ErrInvalidAudio, fmt.Sprintf(reason, args...))
	return decodeError(cause, format, operation, size)
}
