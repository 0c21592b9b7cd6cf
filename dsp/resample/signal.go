package resample

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-stretch/dsp/audio"
	"golang.org/x/sync/errgroup"
)

// Signal converts every channel of sig to outRate. The filter delay is
// removed so output sample 0 lines up with input sample 0, and each channel
// has exactly round(len*up/down) samples for the approximated ratio. A
// signal already at outRate is returned as a copy.
func Signal(sig audio.Signal, outRate float64, opts ...Option) (audio.Signal, error) {
	err := sig.Validate()
	if err != nil {
		return audio.Signal{}, fmt.Errorf("resample: %w", err)
	}

	err = validateRate("output rate", outRate)
	if err != nil {
		return audio.Signal{}, err
	}

	if sig.SampleRate == outRate {
		return sig.Clone(), nil
	}

	cfg := newConfig(opts)

	up, down, err := ratioForRates(sig.SampleRate, outRate, cfg.maxDen)
	if err != nil {
		return audio.Signal{}, err
	}

	out := make([][]float64, sig.NumChannels())

	convert := func(c int) error {
		r, err := NewRational(up, down, opts...)
		if err != nil {
			return err
		}

		out[c] = r.convertAligned(sig.Channels[c])

		return nil
	}

	if cfg.parallel && len(out) > 1 {
		var g errgroup.Group
		for c := range out {
			g.Go(func() error { return convert(c) })
		}

		err = g.Wait()
	} else {
		for c := range out {
			err = convert(c)
			if err != nil {
				break
			}
		}
	}

	if err != nil {
		return audio.Signal{}, err
	}

	return audio.Signal{Channels: out, SampleRate: outRate}, nil
}

// convertAligned runs a whole buffer through r, flushes the filter with
// zeros and drops the leading group delay.
func (r *Resampler) convertAligned(input []float64) []float64 {
	want := int(math.Round(float64(len(input)) * float64(r.up) / float64(r.down)))
	if want == 0 {
		return []float64{}
	}

	delay := r.Delay()
	flush := make([]float64, r.proto.span+1)

	y := r.Process(input)
	y = append(y, r.Process(flush)...)

	for len(y) < delay+want {
		y = append(y, r.Process(flush)...)
	}

	return append([]float64(nil), y[delay:delay+want]...)
}
