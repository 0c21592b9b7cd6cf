package stretch

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidFactor indicates a stretch factor that is not a finite value > 0.
	ErrInvalidFactor = errors.New("stretch: invalid stretch factor")
	// ErrInvalidWindow indicates a window duration that is not a finite value > 0.
	ErrInvalidWindow = errors.New("stretch: invalid window duration")
	// ErrInvalidSampleRate indicates a sample rate that is not a finite value > 0.
	ErrInvalidSampleRate = errors.New("stretch: invalid sample rate")
	// ErrInvalidSensitivity indicates a negative or NaN onset sensitivity.
	ErrInvalidSensitivity = errors.New("stretch: invalid onset sensitivity")
	// ErrInvalidBackend indicates an unknown FFT backend selection.
	ErrInvalidBackend = errors.New("stretch: invalid FFT backend")
)

func validatePositive(sentinel error, name string, v float64) error {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be > 0: %f", sentinel, name, v)
	}

	return nil
}
