package mfcc

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// hannWindow returns a periodic Hann window of length n (scipy get_window("hann", n)).
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range n {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// centerPad zero-pads NFFT/2 samples on both sides of the signal.
func centerPad(samples []float32, nfft int) []float64 {
	pad := nfft / 2
	out := make([]float64, len(samples)+2*pad)
	for i, s := range samples {
		out[pad+i] = float64(s)
	}
	return out
}

// powerSpectrogram returns |STFT|^2 as [frames][NFFT/2+1] for a centered STFT.
func (e *Extractor) powerSpectrogram(samples []float32) [][]float64 {
	nfft := e.cfg.NFFT
	hop := e.cfg.HopLength
	padded := centerPad(samples, nfft)
	frames := e.Frames(len(samples))
	bins := nfft/2 + 1

	fft := fourier.NewFFT(nfft)
	frame := make([]float64, nfft)
	coeffs := make([]complex128, bins)

	out := make([][]float64, frames)
	for t := range frames {
		start := t * hop
		for i := range nfft {
			frame[i] = padded[start+i] * e.window[i]
		}
		coeffs = fft.Coefficients(coeffs, frame)

		power := make([]float64, bins)
		for k, c := range coeffs {
			re, im := real(c), imag(c)
			power[k] = re*re + im*im
		}
		out[t] = power
	}
	return out
}
