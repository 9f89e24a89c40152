package myaudio

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/tphakala/stressnet-go/internal/logger"
)

// Defaults for the analysis window
const (
	DefaultSampleRate = 22050
	DefaultOffset     = 500 * time.Millisecond
	DefaultDuration   = 3 * time.Second
)

// LoadOptions selects the analysis window and output rate.
type LoadOptions struct {
	Offset     time.Duration // skipped from the start of the clip
	Duration   time.Duration // kept after the offset; shorter tails are not padded
	SampleRate int           // output sample rate
	Formats    []string      // accepted formats, empty accepts every decoder
}

// DefaultLoadOptions returns the 0.5 s offset, 3 s window at 22050 Hz.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Offset:     DefaultOffset,
		Duration:   DefaultDuration,
		SampleRate: DefaultSampleRate,
	}
}

func (o LoadOptions) formatAllowed(format string) bool {
	if len(o.Formats) == 0 {
		return true
	}
	for _, f := range o.Formats {
		if NormalizeFormat(f) == format {
			return true
		}
	}
	return false
}

// Load decodes data, down-mixes to mono, keeps the analysis window at the
// native rate and resamples it to opts.SampleRate. It returns the samples
// and their sample rate.
//
// A clip whose length does not reach opts.Offset fails with ErrAudioTooShort.
// A clip that ends inside the window is returned shorter than Duration.
func Load(data []byte, format string, opts LoadOptions) ([]float32, int, error) {
	format = NormalizeFormat(format)
	if !opts.formatAllowed(format) {
		return nil, 0, decodeError(fmt.Errorf("%w: %q is not enabled", ErrUnsupportedFormat, format), format, "load", len(data))
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}

	pcm, err := Decode(data, format)
	if err != nil {
		return nil, 0, err
	}

	window, err := Crop(pcm.Samples, pcm.SampleRate, opts.Offset, opts.Duration)
	if err != nil {
		return nil, 0, decodeError(err, format, "crop", len(data))
	}

	samples, err := ResampleAudio(window, pcm.SampleRate, opts.SampleRate)
	if err != nil {
		return nil, 0, decodeError(err, format, "resample", len(data))
	}

	GetLogger().Debug("loaded analysis window",
		logger.Int("native_rate", pcm.SampleRate),
		logger.Int("target_rate", opts.SampleRate),
		logger.Int("samples", len(samples)))

	return samples, opts.SampleRate, nil
}

// Crop returns samples[start:end] where start = round(offset*rate) and
// end = start + round(duration*rate), clamped to the clip. A zero or negative
// duration keeps everything after the offset.
func Crop(samples []float32, rate int, offset, duration time.Duration) ([]float32, error) {
	start := int(math.Round(offset.Seconds() * float64(rate)))
	if start < 0 {
		start = 0
	}
	if start >= len(samples) {
		return nil, fmt.Errorf("%w: %.3fs clip, %.3fs offset",
			ErrAudioTooShort, float64(len(samples))/float64(rate), offset.Seconds())
	}

	end := len(samples)
	if duration > 0 {
		end = min(end, start+int(math.Round(duration.Seconds()*float64(rate))))
	}

	return slices.Clone(samples[start:end]), nil
}
