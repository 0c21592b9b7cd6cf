package testutil

import (
	"math"
	"math/rand/v2"
)

// DeterministicSine generates a sine wave starting at phase 0.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise generates uniform white noise in [-amplitude, amplitude)
// from a fixed seed.
func DeterministicNoise(seed uint64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Square generates a square wave of ±amplitude that flips every halfPeriod
// samples, starting high.
func Square(halfPeriod int, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	if halfPeriod < 1 {
		halfPeriod = 1
	}

	for i := range out {
		out[i] = amplitude
		if (i/halfPeriod)%2 == 1 {
			out[i] = -amplitude
		}
	}

	return out
}

// NoiseStep returns quiet noise followed by loud noise, each of the given
// length, for onset tests.
func NoiseStep(quiet, loud float64, length int) []float64 {
	return Concat(DeterministicNoise(1, quiet, length), DeterministicNoise(2, loud, length))
}

// Concat joins parts into a new slice.
func Concat(parts ...[]float64) []float64 {
	n := 0
	for _, p := range parts {
		n += len(p)
	}

	out := make([]float64, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	return DC(1.0, n)
}
