package stretch

import (
	"math"

	"github.com/cwbudde/algo-stretch/dsp/window"
)

const minWindowSize = 16

// WindowSpec holds the analysis/synthesis window and the overlap-add gain
// correction derived from a window duration and sample rate.
type WindowSpec struct {
	// Size is the frame length in samples: even and at least 16.
	Size int
	// Half is Size/2, the hop and output chunk length.
	Half int
	// Window is the symmetric Hann curve of length Size, zero at both ends.
	Window []float64
	// InverseHalf has length Half and undoes the amplitude ripple left by
	// overlap-adding two doubly windowed frames at 50% overlap.
	InverseHalf []float64
}

// NewWindowSpec builds the window for a duration in seconds at sampleRate.
func NewWindowSpec(seconds, sampleRate float64) (WindowSpec, error) {
	err := validatePositive(ErrInvalidWindow, "window duration", seconds)
	if err != nil {
		return WindowSpec{}, err
	}

	err = validatePositive(ErrInvalidSampleRate, "sample rate", sampleRate)
	if err != nil {
		return WindowSpec{}, err
	}

	return newWindowSpecSize(WindowSize(seconds, sampleRate)), nil
}

// WindowSize returns the frame length used for a duration at sampleRate:
// floor(seconds*sampleRate), raised to 16 and rounded down to even.
func WindowSize(seconds, sampleRate float64) int {
	size := int(seconds * sampleRate)
	if size < minWindowSize {
		size = minWindowSize
	}

	return size / 2 * 2
}

func newWindowSpecSize(size int) WindowSpec {
	half := size / 2

	return WindowSpec{
		Size:        size,
		Half:        half,
		Window:      window.Generate(window.TypeHann, size),
		InverseHalf: inverseHalfWindow(half),
	}
}

func inverseHalfWindow(half int) []float64 {
	h := (1 + math.Sqrt(0.5)) * 0.5
	out := make([]float64, half)

	for i := range out {
		c := math.Cos(2 * math.Pi * float64(i) / float64(half))
		out[i] = 2 * (h - (1-h)*c) / h
	}

	return out
}

// Seconds returns the frame duration at sampleRate.
func (w WindowSpec) Seconds(sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 0
	}

	return float64(w.Size) / sampleRate
}

// Bins returns the half-spectrum length, Half+1.
func (w WindowSpec) Bins() int { return w.Half + 1 }
