// Package myaudio decodes uploaded audio clips into mono float32 samples.
//
// Load selects a decoder from the format hint (the upload's file extension),
// down-mixes to mono by averaging channels, keeps the analysis window
// [offset, offset+duration) at the native sample rate and finally resamples
// the window to the target rate. Samples are normalized to [-1, 1).
//
// Decoders:
//   - wav:  github.com/go-audio/wav (8-bit unsigned, 16/24/32-bit PCM)
//   - mp3:  github.com/hajimehoshi/go-mp3
//   - flac: github.com/tphakala/flac
package myaudio
