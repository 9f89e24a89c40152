// Package mfcc computes mel-frequency cepstral coefficients compatible with
// librosa's feature.mfcc defaults.
//
// Pipeline per clip:
//
//	centered STFT (periodic Hann, zero padded) -> power spectrum
//	-> Slaney mel filterbank -> power_to_db (top_db clamp)
//	-> orthonormal DCT-II -> first NMFCC rows
//
// Default parameters:
//
//	SampleRate: 22050
//	NFFT:       2048
//	HopLength:  512
//	NMels:      128
//	NMFCC:      40
//	FMin:       0
//	FMax:       SampleRate / 2
//	TopDB:      80
package mfcc

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyInput is returned when there are no samples to analyse.
var ErrEmptyInput = errors.New("mfcc: input has no samples")

// Config controls MFCC extraction.
type Config struct {
	SampleRate int     // input sample rate in Hz
	NFFT       int     // FFT and window length in samples
	HopLength  int     // hop between frames in samples
	NMels      int     // number of mel bands
	NMFCC      int     // number of cepstral coefficients kept
	FMin       float64 // lowest mel band edge in Hz
	FMax       float64 // highest mel band edge in Hz, 0 means SampleRate/2
	TopDB      float64 // dynamic range below the peak kept in dB, 0 disables
}

// DefaultConfig returns librosa's defaults with 40 coefficients.
func DefaultConfig() Config {
	return Config{
		SampleRate: 22050,
		NFFT:       2048,
		HopLength:  512,
		NMels:      128,
		NMFCC:      40,
		FMin:       0,
		FMax:       0,
		TopDB:      80,
	}
}

func (c Config) validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("mfcc: sample rate must be positive, got %d", c.SampleRate)
	case c.NFFT < 2 || c.NFFT%2 != 0:
		return fmt.Errorf("mfcc: n_fft must be even and at least 2, got %d", c.NFFT)
	case c.HopLength <= 0:
		return fmt.Errorf("mfcc: hop length must be positive, got %d", c.HopLength)
	case c.NMels <= 0:
		return fmt.Errorf("mfcc: n_mels must be positive, got %d", c.NMels)
	case c.NMFCC <= 0 || c.NMFCC > c.NMels:
		return fmt.Errorf("mfcc: n_mfcc must be in [1, %d], got %d", c.NMels, c.NMFCC)
	case c.FMin < 0 || c.fmax() <= c.FMin || c.fmax() > float64(c.SampleRate)/2:
		return fmt.Errorf("mfcc: invalid band edges %.1f..%.1f Hz", c.FMin, c.fmax())
	case c.TopDB < 0:
		return fmt.Errorf("mfcc: top_db must not be negative, got %.1f", c.TopDB)
	}
	return nil
}

func (c Config) fmax() float64 {
	if c.FMax <= 0 {
		return float64(c.SampleRate) / 2
	}
	return c.FMax
}

// Extractor computes MFCCs. It is immutable after New and safe for concurrent use.
type Extractor struct {
	cfg     Config
	window  []float64
	melBank [][]float64 // [NMels][NFFT/2+1]
	dct     [][]float64 // [NMFCC][NMels]
}

// New creates an Extractor, precomputing the window, filterbank and DCT basis.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Extractor{
		cfg:     cfg,
		window:  hannWindow(cfg.NFFT),
		melBank: melFilterBank(cfg.NMels, cfg.NFFT, cfg.SampleRate, cfg.FMin, cfg.fmax()),
		dct:     dctBasis(cfg.NMFCC, cfg.NMels),
	}, nil
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Frames returns the number of STFT frames produced for n samples.
func (e *Extractor) Frames(n int) int {
	return 1 + n/e.cfg.HopLength
}

// Extract returns the MFCC matrix as [frames][NMFCC].
func (e *Extractor) Extract(samples []float32) ([][]float32, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyInput
	}

	power := e.powerSpectrogram(samples)
	melDB := e.melDB(power)

	out := make([][]float32, len(melDB))
	for t, frame := range melDB {
		coeffs := make([]float32, e.cfg.NMFCC)
		for k, basis := range e.dct {
			var sum float64
			for m, v := range frame {
				sum += basis[m] * v
			}
			coeffs[k] = float32(sum)
		}
		out[t] = coeffs
	}
	return out, nil
}

// Mean returns the per-coefficient mean of the MFCCs over all frames,
// a vector of length NMFCC.
func (e *Extractor) Mean(samples []float32) ([]float32, error) {
	frames, err := e.Extract(samples)
	if err != nil {
		return nil, err
	}
	return MeanOverFrames(frames), nil
}

// MeanOverFrames averages a [frames][n] matrix over its first axis.
func MeanOverFrames(frames [][]float32) []float32 {
	if len(frames) == 0 {
		return nil
	}
	sums := make([]float64, len(frames[0]))
	for _, f := range frames {
		for i, v := range f {
			sums[i] += float64(v)
		}
	}
	out := make([]float32, len(sums))
	n := float64(len(frames))
	for i, s := range sums {
		out[i] = float32(s / n)
	}
	return out
}

// melDB applies the filterbank to each power frame and converts to decibels
// with a global top_db floor. Result is [frames][NMels].
func (e *Extractor) melDB(power [][]float64) [][]float64 {
	const amin = 1e-10

	out := make([][]float64, len(power))
	peak := math.Inf(-1)
	for t, spectrum := range power {
		bands := make([]float64, len(e.melBank))
		for m, weights := range e.melBank {
			var sum float64
			for k, w := range weights {
				if w != 0 {
					sum += w * spectrum[k]
				}
			}
			db := 10 * math.Log10(math.Max(amin, sum))
			bands[m] = db
			peak = math.Max(peak, db)
		}
		out[t] = bands
	}

	if e.cfg.TopDB > 0 {
		floor := peak - e.cfg.TopDB
		for _, bands := range out {
			for m, v := range bands {
				if v < floor {
					bands[m] = floor
				}
			}
		}
	}
	return out
}
