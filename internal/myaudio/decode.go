package myaudio

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tphakala/stressnet-go/internal/logger"
)

// PCM is decoded audio at its native sample rate, down-mixed to mono.
type PCM struct {
	Samples    []float32 // mono samples in [-1, 1)
	SampleRate int       // native sample rate in Hz
	Channels   int       // channel count of the source
	BitDepth   int       // source bit depth, 16 for mp3
}

// Duration returns the clip length in seconds.
func (p *PCM) Duration() float64 {
	if p == nil || p.SampleRate == 0 {
		return 0
	}
	return float64(len(p.Samples)) / float64(p.SampleRate)
}

type decodeFunc func(data []byte) (*PCM, error)

// decoders maps normalized format names to decoders.
var decoders = map[string]decodeFunc{
	"wav":  decodeWAV,
	"wave": decodeWAV,
	"mp3":  decodeMP3,
	"flac": decodeFLAC,
}

// NormalizeFormat turns a format hint into a lower-case extension without a dot.
// It accepts bare formats ("WAV"), extensions (".mp3") and file names ("clip.flac").
func NormalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if ext := filepath.Ext(format); ext != "" {
		format = ext
	}
	format = strings.TrimPrefix(format, ".")
	if format == "wave" {
		return "wav"
	}
	return format
}

// SupportedFormats returns the formats a decoder exists for, sorted.
func SupportedFormats() []string {
	formats := make([]string, 0, len(decoders))
	for f := range decoders {
		if f == "wave" {
			continue
		}
		formats = append(formats, f)
	}
	slices.Sort(formats)
	return formats
}

// Decode decodes data according to the format hint into mono PCM at the native rate.
func Decode(data []byte, format string) (*PCM, error) {
	format = NormalizeFormat(format)
	decode, ok := decoders[format]
	if !ok {
		return nil, decodeError(fmt.Errorf("%w: %q", ErrUnsupportedFormat, format), format, "decode", len(data))
	}
	if len(data) == 0 {
		return nil, decodeError(ErrEmptyAudio, format, "decode", 0)
	}

	pcm, err := decodeSafely(decode, data, format)
	if err != nil {
		return nil, err
	}
	if len(pcm.Samples) == 0 {
		return nil, decodeError(ErrEmptyAudio, format, "decode", len(data))
	}

	GetLogger().Debug("decoded audio",
		logger.String("format", format),
		logger.Int("sample_rate", pcm.SampleRate),
		logger.Int("channels", pcm.Channels),
		logger.Int("bit_depth", pcm.BitDepth),
		logger.Float64("seconds", pcm.Duration()))

	return pcm, nil
}

// decodeSafely runs decode and converts a decoder panic into an invalid audio
// error. The third-party decoders index into frame data without bounds checks
// and panic on corrupt frames.
func decodeSafely(decode decodeFunc, data []byte, format string) (pcm *PCM, err error) {
	defer func() {
		if r := recover(); r != nil {
			GetLogger().Debug("decoder panicked on corrupt input",
				logger.String("format", format),
				logger.Int("size", len(data)),
				logger.Any("panic", r))
			pcm, err = nil, invalidAudio(format, "decode_"+format, len(data), "corrupt %s stream: %v", format, r)
		}
	}()
	return decode(data)
}

// downmix averages interleaved integer frames into mono floats.
// Trailing samples that do not form a whole frame are dropped.
func downmix(data []int, channels int, toFloat func(int) float32) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(data) / channels
	out := make([]float32, frames)
	if channels == 1 {
		for i := range frames {
			out[i] = toFloat(data[i])
		}
		return out
	}

	inv := 1 / float32(channels)
	for i := range frames {
		var sum float32
		base := i * channels
		for c := range channels {
			sum += toFloat(data[base+c])
		}
		out[i] = sum * inv
	}
	return out
}

// getAudioDivisor returns the full-scale value for signed PCM of the given depth.
func getAudioDivisor(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported audio bit depth: %d", bitDepth)
	}
}
