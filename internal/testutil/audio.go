// Package testutil provides shared test fixtures for StressNet-Go packages.
// WAV fixtures are built in memory with go-audio/wav. The MP3 fixture is a
// short public domain speech excerpt embedded from testdata.
package testutil

import (
	_ "embed"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// WAVSpec describes a synthetic WAV fixture.
type WAVSpec struct {
	SampleRate int
	BitDepth   int
	Channels   int
	Seconds    float64
	Frequency  float64 // sine frequency in Hz, 0 produces silence
	Amplitude  float64 // peak amplitude in [0, 1]
}

// DefaultWAVSpec is a 4 s, 440 Hz, 16-bit mono clip at 22050 Hz.
func DefaultWAVSpec() WAVSpec {
	return WAVSpec{
		SampleRate: 22050,
		BitDepth:   16,
		Channels:   1,
		Seconds:    4,
		Frequency:  440,
		Amplitude:  0.5,
	}
}

// SineWAV encodes a sine clip described by spec and returns the file bytes.
// Every channel carries the same signal.
func SineWAV(t testing.TB, spec WAVSpec) []byte {
	t.Helper()

	frames := int(math.Round(spec.Seconds * float64(spec.SampleRate)))
	fullScale := math.Exp2(float64(spec.BitDepth-1)) - 1

	data := make([]int, frames*spec.Channels)
	for i := range frames {
		v := spec.Amplitude * math.Sin(2*math.Pi*spec.Frequency*float64(i)/float64(spec.SampleRate))
		sample := int(math.Round(v * fullScale))
		if spec.BitDepth == 8 {
			sample += 128 // unsigned 8-bit PCM
		}
		for c := range spec.Channels {
			data[i*spec.Channels+c] = sample
		}
	}

	return EncodeWAV(t, data, spec.SampleRate, spec.BitDepth, spec.Channels)
}

// EncodeWAV writes interleaved integer samples as a PCM WAV file and returns its bytes.
func EncodeWAV(t testing.TB, data []int, sampleRate, bitDepth, channels int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	return out
}

// NotAudio returns bytes that no decoder accepts, like a text file renamed to .wav.
func NotAudio() []byte {
	return []byte("this is a plain text file, not a recording\n")
}

// MP3 fixture properties: MPEG-2 Layer III, mono, 150 frames of 576 samples.
const (
	SpeechMP3SampleRate = 22050
	SpeechMP3Frames     = 150
	SpeechMP3Samples    = SpeechMP3Frames * 576
)

//go:embed testdata/speech.mp3
var speechMP3 []byte

// SpeechMP3 returns a copy of the 3.9 s speech clip.
func SpeechMP3() []byte {
	return append([]byte(nil), speechMP3...)
}

// TruncatedMP3 returns a valid MPEG-1 Layer III frame header followed by far
// fewer bytes than the header declares.
func TruncatedMP3() []byte {
	return []byte{0xFF, 0xFB, 0x90, 0x64, 0x00, 0x0F, 0xF0, 0x00}
}
