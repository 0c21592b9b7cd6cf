package resample

import (
	"fmt"
)

// Resampler performs streaming rational sample-rate conversion of one
// channel. It is not safe for concurrent use.
type Resampler struct {
	up, down int
	quality  Quality
	proto    prototype

	phase    int
	next     int // absolute input index of the next output sample
	consumed int
	history  []float64
}

// NewRational creates a resampler for ratio up/down.
func NewRational(up, down int, opts ...Option) (*Resampler, error) {
	if up <= 0 || down <= 0 {
		return nil, fmt.Errorf("%w: %d/%d", ErrInvalidRatio, up, down)
	}

	g := gcd(up, down)
	up /= g
	down /= g

	cfg := newConfig(opts)

	proto, err := designPrototype(up, down, cfg)
	if err != nil {
		return nil, err
	}

	return &Resampler{
		up:      up,
		down:    down,
		quality: cfg.quality,
		proto:   proto,
		history: make([]float64, 0, max(0, proto.span-1)),
	}, nil
}

// NewForRates creates a resampler by approximating outRate/inRate as a ratio.
func NewForRates(inRate, outRate float64, opts ...Option) (*Resampler, error) {
	up, down, err := ratioForRates(inRate, outRate, newConfig(opts).maxDen)
	if err != nil {
		return nil, err
	}

	return NewRational(up, down, opts...)
}

func ratioForRates(inRate, outRate float64, maxDen int) (up, down int, err error) {
	err = validateRate("input rate", inRate)
	if err != nil {
		return 0, 0, err
	}

	err = validateRate("output rate", outRate)
	if err != nil {
		return 0, 0, err
	}

	up, down = approximateRatio(outRate/inRate, maxDen)

	return up, down, nil
}

// Resample converts input using ratio up/down as a one-shot helper. The
// output keeps the filter delay; use Signal for delay-compensated output.
func Resample(input []float64, up, down int, opts ...Option) ([]float64, error) {
	r, err := NewRational(up, down, opts...)
	if err != nil {
		return nil, err
	}

	return r.Process(input), nil
}

// Reset clears internal filter state.
func (r *Resampler) Reset() {
	r.phase = 0
	r.next = 0
	r.consumed = 0
	r.history = r.history[:0]
}

// Process converts an input block and preserves internal state for streaming.
func (r *Resampler) Process(input []float64) []float64 {
	if len(input) == 0 {
		return nil
	}

	out := make([]float64, 0, r.PredictOutputLen(len(input)))

	work := append(append(make([]float64, 0, len(r.history)+len(input)), r.history...), input...)
	base := r.consumed - len(r.history)
	last := r.consumed + len(input) - 1

	for r.next <= last {
		var y float64

		for k, c := range r.proto.phases[r.phase] {
			idx := r.next - k
			if idx < base {
				break
			}

			y += c * work[idx-base]
		}

		out = append(out, y)
		r.step()
	}

	r.consumed += len(input)

	keep := min(max(0, r.proto.span-1), len(work))
	r.history = append(r.history[:0], work[len(work)-keep:]...)

	return out
}

func (r *Resampler) step() {
	r.phase += r.down
	r.next += r.phase / r.up
	r.phase %= r.up
}

// PredictOutputLen returns the number of samples the next Process call with
// inputLen samples will produce.
func (r *Resampler) PredictOutputLen(inputLen int) int {
	if inputLen <= 0 {
		return 0
	}

	last := r.consumed + inputLen - 1
	next, phase := r.next, r.phase

	count := 0
	for next <= last {
		count++
		phase += r.down
		next += phase / r.up
		phase %= r.up
	}

	return count
}

// Delay returns the group delay of the filter in output samples.
func (r *Resampler) Delay() int {
	return r.proto.delay(r.down)
}

// Ratio returns reduced up/down conversion factors.
func (r *Resampler) Ratio() (up, down int) {
	return r.up, r.down
}

// Quality returns the configured quality mode.
func (r *Resampler) Quality() Quality {
	return r.quality
}

// TapsPerPhase returns taps in each polyphase branch for phase 0.
func (r *Resampler) TapsPerPhase() int {
	if len(r.proto.phases) == 0 {
		return 0
	}

	return len(r.proto.phases[0])
}

// Prototype returns a copy of the underlying prototype FIR taps.
func (r *Resampler) Prototype() []float64 {
	return append([]float64(nil), r.proto.taps...)
}
