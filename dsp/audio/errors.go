package audio

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoChannels indicates a signal without any channel.
	ErrNoChannels = errors.New("audio: signal has no channels")
	// ErrRaggedChannels indicates channels of different lengths.
	ErrRaggedChannels = errors.New("audio: channels have different lengths")
	// ErrInvalidSampleRate indicates a non-positive or non-finite sample rate.
	ErrInvalidSampleRate = errors.New("audio: invalid sample rate")
	// ErrInvalidChannelCount indicates a requested channel count < 1.
	ErrInvalidChannelCount = errors.New("audio: invalid channel count")
)

func validateSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be > 0: %f", ErrInvalidSampleRate, sampleRate)
	}

	return nil
}
