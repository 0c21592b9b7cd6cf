package mix

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-stretch/dsp/audio"
	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-stretch/dsp/resample"
	"github.com/cwbudde/algo-vecmath"
)

// DefaultBackgroundGainDB is the background gain used by the meditation
// renderer.
const DefaultBackgroundGainDB = 20.0

// Option configures Mix.
type Option func(*config)

type config struct {
	resampleOpts []resample.Option
	report       *Report
}

// WithResampleOptions passes options to the background resampler.
func WithResampleOptions(opts ...resample.Option) Option {
	return func(c *config) {
		c.resampleOpts = append(c.resampleOpts, opts...)
	}
}

// WithReport stores details about the mix in r.
func WithReport(r *Report) Option {
	return func(c *config) {
		c.report = r
	}
}

// Report describes what Mix did to the inputs.
type Report struct {
	Resampled  bool
	Padded     int
	Truncated  int
	Gain       float64
	Peak       float64
	Normalized bool
}

// Mix returns fg + bg*10^(gainDB/20), normalized to peak 1 when the sum
// clips. The result has the length, channel count and sample rate of fg.
// Neither input is modified.
func Mix(fg, bg audio.Signal, gainDB float64, opts ...Option) (audio.Signal, error) {
	var cfg config

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if math.IsNaN(gainDB) || math.IsInf(gainDB, 0) {
		return audio.Signal{}, fmt.Errorf("%w: %f", ErrInvalidGain, gainDB)
	}

	err := fg.Validate()
	if err != nil {
		return audio.Signal{}, fmt.Errorf("mix: foreground: %w", err)
	}

	err = bg.Validate()
	if err != nil {
		return audio.Signal{}, fmt.Errorf("mix: background: %w", err)
	}

	var rep Report

	if bg.SampleRate != fg.SampleRate {
		bg, err = resample.Signal(bg, fg.SampleRate, cfg.resampleOpts...)
		if err != nil {
			return audio.Signal{}, fmt.Errorf("mix: resample background: %w", err)
		}

		rep.Resampled = true
	}

	n := fg.Len()

	switch {
	case bg.Len() < n:
		rep.Padded = n - bg.Len()
	case bg.Len() > n:
		rep.Truncated = bg.Len() - n
	}

	bed, err := bg.Fit(n).ToChannels(fg.NumChannels())
	if err != nil {
		return audio.Signal{}, fmt.Errorf("mix: background: %w", err)
	}

	rep.Gain = core.DBToLinear(gainDB)

	out := audio.Signal{Channels: make([][]float64, fg.NumChannels()), SampleRate: fg.SampleRate}
	for c, ch := range bed.Channels {
		vecmath.ScaleBlock(ch, ch, rep.Gain)
		vecmath.AddBlockInPlace(ch, fg.Channels[c])
		out.Channels[c] = ch
	}

	rep.Peak = out.Peak()
	if rep.Peak > 1 {
		out.Scale(1 / rep.Peak)

		rep.Normalized = true
	}

	if cfg.report != nil {
		*cfg.report = rep
	}

	return out, nil
}
