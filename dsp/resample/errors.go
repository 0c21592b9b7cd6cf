package resample

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidRatio indicates an invalid up/down ratio.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidRate indicates an invalid input/output sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
	// ErrInvalidFilter indicates filter parameters that cannot produce a
	// usable prototype.
	ErrInvalidFilter = errors.New("resample: invalid filter design")
)

func validateRate(name string, rate float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: %s must be > 0: %f", ErrInvalidRate, name, rate)
	}

	return nil
}
