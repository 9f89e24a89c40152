package mfcc

import "math"

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	slaneyFSp       = 200.0 / 3
	slaneyMinLogHz  = 1000.0
	slaneyMinLogMel = slaneyMinLogHz / slaneyFSp
)

var slaneyLogStep = math.Log(6.4) / 27.0

func hzToMel(hz float64) float64 {
	if hz >= slaneyMinLogHz {
		return slaneyMinLogMel + math.Log(hz/slaneyMinLogHz)/slaneyLogStep
	}
	return hz / slaneyFSp
}

func melToHz(mel float64) float64 {
	if mel >= slaneyMinLogMel {
		return slaneyMinLogHz * math.Exp(slaneyLogStep*(mel-slaneyMinLogMel))
	}
	return slaneyFSp * mel
}

// melFrequencies returns n band edges evenly spaced on the mel scale, in Hz.
func melFrequencies(n int, fmin, fmax float64) []float64 {
	minMel, maxMel := hzToMel(fmin), hzToMel(fmax)
	out := make([]float64, n)
	for i := range n {
		mel := minMel + (maxMel-minMel)*float64(i)/float64(n-1)
		out[i] = melToHz(mel)
	}
	return out
}

// melFilterBank builds triangular filters with Slaney area normalization,
// shaped [numMels][nfft/2+1].
func melFilterBank(numMels, nfft, sampleRate int, fmin, fmax float64) [][]float64 {
	bins := nfft/2 + 1
	fftFreqs := make([]float64, bins)
	for k := range bins {
		fftFreqs[k] = float64(k) * float64(sampleRate) / float64(nfft)
	}

	edges := melFrequencies(numMels+2, fmin, fmax)

	bank := make([][]float64, numMels)
	for m := range numMels {
		lowerWidth := edges[m+1] - edges[m]
		upperWidth := edges[m+2] - edges[m+1]
		enorm := 2.0 / (edges[m+2] - edges[m])

		weights := make([]float64, bins)
		for k, f := range fftFreqs {
			lower := (f - edges[m]) / lowerWidth
			upper := (edges[m+2] - f) / upperWidth
			if w := math.Min(lower, upper); w > 0 {
				weights[k] = w * enorm
			}
		}
		bank[m] = weights
	}
	return bank
}
