package window

import (
	"errors"
	"fmt"
)

// ErrUnknownType reports a window name ParseType does not recognise.
var ErrUnknownType = errors.New("window: unknown type")

var (
	errEmptyCoeffs      = errors.New("window coefficients must not be empty")
	errZeroCoherentGain = errors.New("window coherent gain is zero")
)

func validateKaiser(size int, beta float64) error {
	if size <= 0 {
		return fmt.Errorf("window size must be > 0: %d", size)
	}

	if beta < 0 {
		return fmt.Errorf("kaiser beta must be >= 0: %f", beta)
	}

	return nil
}
