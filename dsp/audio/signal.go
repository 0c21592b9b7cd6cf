package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-vecmath"
)

// Signal is a planar multi-channel audio buffer.
type Signal struct {
	// Channels holds one sample slice per channel.
	Channels [][]float64
	// SampleRate is the sampling frequency in Hz.
	SampleRate float64
}

// NewSignal wraps the given channel slices without copying.
func NewSignal(sampleRate float64, channels ...[]float64) (Signal, error) {
	s := Signal{Channels: channels, SampleRate: sampleRate}

	err := s.Validate()
	if err != nil {
		return Signal{}, err
	}

	return s, nil
}

// Mono wraps samples as a single-channel signal without copying.
func Mono(sampleRate float64, samples []float64) Signal {
	return Signal{Channels: [][]float64{samples}, SampleRate: sampleRate}
}

// Stereo wraps left and right as a two-channel signal without copying.
func Stereo(sampleRate float64, left, right []float64) Signal {
	return Signal{Channels: [][]float64{left, right}, SampleRate: sampleRate}
}

// Silence returns a zero-filled signal.
func Silence(sampleRate float64, numChannels, length int) Signal {
	if numChannels < 1 {
		numChannels = 1
	}

	if length < 0 {
		length = 0
	}

	ch := make([][]float64, numChannels)
	for i := range ch {
		ch[i] = make([]float64, length)
	}

	return Signal{Channels: ch, SampleRate: sampleRate}
}

// Validate reports whether s has at least one channel, equal channel lengths
// and a usable sample rate.
func (s Signal) Validate() error {
	if len(s.Channels) == 0 {
		return ErrNoChannels
	}

	err := validateSampleRate(s.SampleRate)
	if err != nil {
		return err
	}

	n := len(s.Channels[0])
	for i, ch := range s.Channels[1:] {
		if len(ch) != n {
			return fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d",
				ErrRaggedChannels, i+1, len(ch), n)
		}
	}

	return nil
}

// NumChannels returns the channel count.
func (s Signal) NumChannels() int { return len(s.Channels) }

// Len returns the per-channel sample count.
func (s Signal) Len() int {
	if len(s.Channels) == 0 {
		return 0
	}

	return len(s.Channels[0])
}

// IsMono reports whether s has exactly one channel.
func (s Signal) IsMono() bool { return len(s.Channels) == 1 }

// Duration returns the signal length as wall-clock time.
func (s Signal) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}

	return time.Duration(float64(s.Len()) / s.SampleRate * float64(time.Second))
}

// Channel returns channel i, or nil when i is out of range.
func (s Signal) Channel(i int) []float64 {
	if i < 0 || i >= len(s.Channels) {
		return nil
	}

	return s.Channels[i]
}

// Clone returns a deep copy of s.
func (s Signal) Clone() Signal {
	ch := make([][]float64, len(s.Channels))
	for i, c := range s.Channels {
		ch[i] = append([]float64(nil), c...)
	}

	return Signal{Channels: ch, SampleRate: s.SampleRate}
}

// ToChannels returns a copy of s with n channels.
//
// Converting to mono averages all channels. Converting mono to n channels
// duplicates it. Any other mismatch keeps the first n channels, padding
// missing ones with copies of the channel average.
func (s Signal) ToChannels(n int) (Signal, error) {
	if n < 1 {
		return Signal{}, fmt.Errorf("%w: %d", ErrInvalidChannelCount, n)
	}

	if len(s.Channels) == 0 {
		return Signal{}, ErrNoChannels
	}

	if n == len(s.Channels) {
		return s.Clone(), nil
	}

	out := Signal{Channels: make([][]float64, n), SampleRate: s.SampleRate}

	switch {
	case n == 1:
		out.Channels[0] = s.Downmix()
	case len(s.Channels) == 1:
		for i := range out.Channels {
			out.Channels[i] = append([]float64(nil), s.Channels[0]...)
		}
	default:
		avg := s.Downmix()
		for i := range out.Channels {
			if i < len(s.Channels) {
				out.Channels[i] = append([]float64(nil), s.Channels[i]...)
			} else {
				out.Channels[i] = append([]float64(nil), avg...)
			}
		}
	}

	return out, nil
}

// Downmix returns the per-sample average of all channels.
func (s Signal) Downmix() []float64 {
	n := s.Len()
	out := make([]float64, n)

	if len(s.Channels) == 0 {
		return out
	}

	for _, ch := range s.Channels {
		for i := 0; i < n && i < len(ch); i++ {
			out[i] += ch[i]
		}
	}

	vecmath.ScaleBlock(out, out, 1/float64(len(s.Channels)))

	return out
}

// Fit returns a copy of s truncated or zero-padded to length samples.
func (s Signal) Fit(length int) Signal {
	if length < 0 {
		length = 0
	}

	out := Signal{Channels: make([][]float64, len(s.Channels)), SampleRate: s.SampleRate}
	for i, ch := range s.Channels {
		c := make([]float64, length)
		copy(c, ch)
		out.Channels[i] = c
	}

	return out
}

// Peak returns the maximum absolute sample value across all channels.
func (s Signal) Peak() float64 {
	peak := 0.0

	for _, ch := range s.Channels {
		for _, v := range ch {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}

	return peak
}

// RMS returns the root-mean-square level over all channels.
func (s Signal) RMS() float64 {
	var (
		sum   float64
		count int
	)

	for _, ch := range s.Channels {
		for _, v := range ch {
			sum += v * v
		}

		count += len(ch)
	}

	if count == 0 {
		return 0
	}

	return math.Sqrt(sum / float64(count))
}

// Scale multiplies every sample by gain in place.
func (s Signal) Scale(gain float64) {
	for _, ch := range s.Channels {
		vecmath.ScaleBlock(ch, ch, gain)
	}
}

// Interleave returns samples in frame order (c0 c1 ... c0 c1 ...).
func (s Signal) Interleave() []float64 {
	nch := len(s.Channels)
	n := s.Len()
	out := make([]float64, n*nch)

	for c, ch := range s.Channels {
		for i := 0; i < n && i < len(ch); i++ {
			out[i*nch+c] = ch[i]
		}
	}

	return out
}

// Deinterleave splits frame-ordered samples into a planar signal.
// Trailing samples that do not form a full frame are dropped.
func Deinterleave(sampleRate float64, numChannels int, samples []float64) (Signal, error) {
	if numChannels < 1 {
		return Signal{}, fmt.Errorf("%w: %d", ErrInvalidChannelCount, numChannels)
	}

	n := len(samples) / numChannels
	out := Silence(sampleRate, numChannels, n)

	for i := range n {
		for c := range numChannels {
			out.Channels[c][i] = samples[i*numChannels+c]
		}
	}

	return out, nil
}
