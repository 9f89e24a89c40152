package myaudio

import (
	"fmt"
	"math"
	"slices"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/tphakala/stressnet-go/internal/logger"
)

// flushDivisor sizes the zero tail appended to push the filter's delayed
// output through: 1/flushDivisor seconds at the input rate.
const flushDivisor = 10

type ratePair struct {
	from, to int
}

// resamplerShifts caches the measured output offset per rate pair.
var resamplerShifts sync.Map // ratePair -> int

// ResampledLength returns the output length for n samples converted between rates.
func ResampledLength(n, fromRate, toRate int) int {
	if fromRate == toRate {
		return n
	}
	return int(math.Ceil(float64(n) * float64(toRate) / float64(fromRate)))
}

// ResampleAudio converts mono samples from fromRate to toRate with the
// high quality preset. The output has exactly ResampledLength samples and is
// time-aligned with the input: output sample i corresponds to input time
// i/toRate.
func ResampleAudio(samples []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", fromRate, toRate)
	}
	if fromRate == toRate {
		return slices.Clone(samples), nil
	}

	shift, err := outputShift(fromRate, toRate)
	if err != nil {
		return nil, err
	}

	output, err := resampleRaw(samples, fromRate, toRate)
	if err != nil {
		return nil, err
	}

	want := ResampledLength(len(samples), fromRate, toRate)
	result := make([]float32, want)
	for i := range result {
		if j := i + shift; j >= 0 && j < len(output) {
			result[i] = float32(output[j])
		}
	}

	return result, nil
}

// resampleRaw runs the resampler over samples plus a zero tail and returns
// its output unaligned.
func resampleRaw(samples []float32, fromRate, toRate int) ([]float64, error) {
	resampler, err := resampling.New(&resampling.Config{
		InputRate:  float64(fromRate),
		OutputRate: float64(toRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	input := make([]float64, len(samples)+fromRate/flushDivisor)
	for i, s := range samples {
		input[i] = float64(s)
	}

	output, err := resampler.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	return output, nil
}

// outputShift returns how many samples the resampler output is ahead (negative)
// or behind (positive) the ideal position for a rate pair. It is measured once
// per pair by resampling an impulse placed where the ideal output position is
// an integer.
func outputShift(fromRate, toRate int) (int, error) {
	key := ratePair{fromRate, toRate}
	if v, ok := resamplerShifts.Load(key); ok {
		return v.(int), nil
	}

	g := gcd(fromRate, toRate)
	step := fromRate / g
	periods := max(1, fromRate/4/step)
	pos := periods * step

	impulse := make([]float32, pos+fromRate/2)
	impulse[pos] = 1
	out, err := resampleRaw(impulse, fromRate, toRate)
	if err != nil {
		return 0, err
	}

	ideal := periods * (toRate / g)
	shift := argmaxAbs(out) - ideal
	if limit := toRate / flushDivisor; shift > limit || shift < -limit {
		GetLogger().Warn("resampler offset out of range, output left unaligned",
			logger.Int("from_rate", fromRate),
			logger.Int("to_rate", toRate),
			logger.Int("shift", shift))
		shift = 0
	}

	GetLogger().Debug("measured resampler offset",
		logger.Int("from_rate", fromRate),
		logger.Int("to_rate", toRate),
		logger.Int("shift", shift))

	actual, _ := resamplerShifts.LoadOrStore(key, shift)
	return actual.(int), nil
}

func argmaxAbs(x []float64) int {
	best := 0
	for i := 1; i < len(x); i++ {
		if math.Abs(x[i]) > math.Abs(x[best]) {
			best = i
		}
	}
	return best
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
