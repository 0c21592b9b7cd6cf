package stretch

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"

	"github.com/cwbudde/algo-stretch/dsp/audio"
	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-vecmath"
	"golang.org/x/sync/errgroup"
)

const (
	endFadeSeconds = 0.05
	minEndFade     = 16
)

// Event describes one emitted chunk of a stretch run.
type Event struct {
	Iteration int
	// Fetched reports that a new frame was analysed for this chunk.
	Fetched bool
	// Held reports that the source was exhausted and the last frame reused.
	Held bool
	// ReadPos is the source position of the newest analysed frame.
	ReadPos float64
	// Tick is the cross-fade weight used to synthesize the chunk.
	Tick float64
	// OnsetScore is NaN unless Fetched.
	OnsetScore  float64
	Onset       bool
	OnsetCredit float64
	// Written is the output length after this chunk.
	Written int
}

// Stretcher holds a validated configuration and can process many signals.
// It is safe for concurrent use unless configured with WithRand.
type Stretcher struct {
	cfg config
}

// New returns a Stretcher configured by opts.
func New(opts ...Option) (*Stretcher, error) {
	cfg := applyOptions(opts)

	err := cfg.validate()
	if err != nil {
		return nil, err
	}

	return &Stretcher{cfg: cfg}, nil
}

// Stretch time-stretches sig by factor with a background context.
func Stretch(sig audio.Signal, factor float64, opts ...Option) (audio.Signal, error) {
	return StretchContext(context.Background(), sig, factor, opts...)
}

// StretchContext time-stretches sig by factor. The output has the same
// channel count and sample rate as sig and about factor times its length.
func StretchContext(ctx context.Context, sig audio.Signal, factor float64, opts ...Option) (audio.Signal, error) {
	s, err := New(opts...)
	if err != nil {
		return audio.Signal{}, err
	}

	return s.Process(ctx, sig, factor)
}

// WindowSpec returns the window the Stretcher uses at sampleRate.
func (s *Stretcher) WindowSpec(sampleRate float64) (WindowSpec, error) {
	return NewWindowSpec(s.cfg.windowSeconds, sampleRate)
}

// Process time-stretches sig by factor. sig is never modified.
func (s *Stretcher) Process(ctx context.Context, sig audio.Signal, factor float64) (audio.Signal, error) {
	err := validatePositive(ErrInvalidFactor, "stretch factor", factor)
	if err != nil {
		return audio.Signal{}, err
	}

	err = sig.Validate()
	if err != nil {
		return audio.Signal{}, fmt.Errorf("stretch: %w", err)
	}

	ws, err := NewWindowSpec(s.cfg.windowSeconds, sig.SampleRate)
	if err != nil {
		return audio.Signal{}, err
	}

	r, err := newRun(s.cfg, ws, sig, factor)
	if err != nil {
		return audio.Signal{}, err
	}

	err = r.execute(ctx)
	if err != nil {
		return audio.Signal{}, err
	}

	out := r.out
	if sig.IsMono() {
		out = out[:1]
	}

	return audio.Signal{Channels: out, SampleRate: sig.SampleRate}, nil
}

// run is the state of one stretch call.
type run struct {
	cfg    config
	ws     WindowSpec
	src    [][]float64
	n      int
	inc    float64
	rng    *rand.Rand
	ffts   []fftBackend
	warp   WarpState
	single bool

	frame       []float64
	cur, prev   [][]complex128
	mixed       [][]complex128
	mags        [][]float64
	re, im      []float64
	curProfile  OnsetProfile
	prevProfile OnsetProfile
	synth, tail [][]float64
	chunk       []float64

	out         [][]float64
	written     int
	iteration   int
	lastPercent int
}

func newRun(cfg config, ws WindowSpec, sig audio.Signal, factor float64) (*run, error) {
	src := workingCopy(sig)
	nch := len(src)
	n := sig.Len()

	ffts, err := newBackends(cfg.backend, ws.Size, nch)
	if err != nil {
		return nil, err
	}

	total := int(float64(n) * factor)
	single := n <= ws.Size

	length := total / ws.Half * ws.Half
	if single {
		length = min(total, ws.Half)
	}

	bins := ws.Bins()
	r := &run{
		cfg:         cfg,
		ws:          ws,
		src:         src,
		n:           n,
		inc:         TickIncrement(factor),
		rng:         cfg.newRand(),
		ffts:        ffts,
		warp:        NewWarpState(),
		single:      single,
		frame:       make([]float64, ws.Size),
		cur:         makeComplex(nch, bins),
		prev:        makeComplex(nch, bins),
		mixed:       makeComplex(nch, bins),
		mags:        makeReal(nch, bins),
		re:          make([]float64, bins),
		im:          make([]float64, bins),
		synth:       makeReal(nch, ws.Size),
		tail:        makeReal(nch, ws.Size),
		chunk:       make([]float64, ws.Half),
		out:         makeReal(nch, length),
		lastPercent: -1,
	}

	return r, nil
}

// workingCopy copies sig, duplicating mono to two channels, and fades out
// the last 50 ms.
func workingCopy(sig audio.Signal) [][]float64 {
	n := sig.Len()
	nch := sig.NumChannels()

	if nch == 1 {
		nch = 2
	}

	src := make([][]float64, nch)
	for c := range src {
		src[c] = append([]float64(nil), sig.Channels[min(c, sig.NumChannels()-1)]...)
	}

	fade := max(minEndFade, int(sig.SampleRate*endFadeSeconds))
	if n <= fade {
		return src
	}

	for c := range src {
		tail := src[c][n-fade:]
		for i := range tail {
			tail[i] *= 1 - float64(i)/float64(fade-1)
		}
	}

	return src
}

func (r *run) execute(ctx context.Context) error {
	if r.single {
		return r.executeSingle(ctx)
	}

	for r.written < len(r.out[0]) {
		err := ctx.Err()
		if err != nil {
			return fmt.Errorf("stretch: %w", err)
		}

		ev := Event{Iteration: r.iteration, OnsetScore: math.NaN()}

		if r.warp.FetchNext {
			if r.warp.ReadPos < float64(r.n-r.ws.Size) {
				r.reportProgress()

				err = r.fetch(&ev)
				if err != nil {
					return err
				}
			} else {
				r.hold()

				ev.Held = true
			}
		}

		err = r.emit(r.warp.Tick)
		if err != nil {
			return err
		}

		r.notify(&ev)

		if ev.Fetched {
			r.warp.ReadPos += float64(r.ws.Half)
		}

		r.warp.FetchNext = false
		r.warp.Advance(r.inc)
		r.iteration++
	}

	r.finishProgress()

	return nil
}

// executeSingle handles input no longer than one window: the zero-padded
// signal is analysed once and synthesized into at most one chunk.
func (r *run) executeSingle(ctx context.Context) error {
	err := ctx.Err()
	if err != nil {
		return fmt.Errorf("stretch: %w", err)
	}

	if len(r.out[0]) == 0 {
		r.finishProgress()
		return nil
	}

	ev := Event{}

	err = r.fetch(&ev)
	if err != nil {
		return err
	}

	r.warp.Tick = 1

	err = r.emit(1)
	if err != nil {
		return err
	}

	r.notify(&ev)
	r.finishProgress()

	return nil
}

// fetch analyses the frame at the read cursor into cur and updates the onset
// state.
func (r *run) fetch(ev *Event) error {
	r.prev, r.cur = r.cur, r.prev
	r.prevProfile = r.curProfile

	start := int(r.warp.ReadPos)
	for c, ch := range r.src {
		clear(r.frame)

		if start < len(ch) {
			copy(r.frame, ch[start:min(start+r.ws.Size, len(ch))])
		}

		vecmath.MulBlockInPlace(r.frame, r.ws.Window)

		err := r.ffts[c].Forward(r.cur[c], r.frame)
		if err != nil {
			return fmt.Errorf("stretch: forward transform: %w", err)
		}

		for k, v := range r.cur[c] {
			r.re[k] = real(v)
			r.im[k] = imag(v)
		}

		vecmath.Magnitude(r.mags[c], r.re, r.im)
	}

	r.curProfile.Compute(r.mags, r.ws.Half)

	score := OnsetScore(r.curProfile, r.prevProfile)
	ev.Fetched = true
	ev.OnsetScore = score

	if score > r.cfg.onsetSensitivity {
		r.warp.Snap()

		ev.Onset = true
	}

	return nil
}

// hold freezes the cross-fade on the last analysed frame once the source is
// exhausted.
func (r *run) hold() {
	for c := range r.cur {
		copy(r.prev[c], r.cur[c])
	}

	r.prevProfile = r.curProfile
}

// emit synthesizes one chunk from the spectra cross-faded by t and appends it
// to the output when it fits.
func (r *run) emit(t float64) error {
	for c := range r.mixed {
		cur, prev, dst := r.cur[c], r.prev[c], r.mixed[c]

		for k := range dst {
			phase := r.rng.Float64() * 2 * math.Pi
			v := cur[k]*complex(t, 0) + prev[k]*complex(1-t, 0)
			dst[k] = v * cmplx.Rect(1, phase)
		}
	}

	err := r.inverse()
	if err != nil {
		return err
	}

	half := r.ws.Half
	fits := r.written+half <= len(r.out[0])
	partial := !fits && r.single

	for c := range r.synth {
		vecmath.MulBlockInPlace(r.synth[c], r.ws.Window)

		if fits || partial {
			copy(r.chunk, r.synth[c][:half])
			vecmath.AddBlockInPlace(r.chunk, r.tail[c][half:])
			vecmath.MulBlockInPlace(r.chunk, r.ws.InverseHalf)
			core.ClampBlock(r.chunk, -1, 1)
			copy(r.out[c][r.written:], r.chunk)
		}

		r.synth[c], r.tail[c] = r.tail[c], r.synth[c]
	}

	switch {
	case fits:
		r.written += half
	case partial:
		r.written = len(r.out[0])
	}

	return nil
}

func (r *run) inverse() error {
	if !r.cfg.parallel || len(r.mixed) < 2 {
		for c := range r.mixed {
			err := r.ffts[c].Inverse(r.synth[c], r.mixed[c])
			if err != nil {
				return fmt.Errorf("stretch: inverse transform: %w", err)
			}
		}

		return nil
	}

	var g errgroup.Group

	for c := range r.mixed {
		g.Go(func() error {
			err := r.ffts[c].Inverse(r.synth[c], r.mixed[c])
			if err != nil {
				return fmt.Errorf("stretch: inverse transform channel %d: %w", c, err)
			}

			return nil
		})
	}

	return g.Wait()
}

func (r *run) notify(ev *Event) {
	if r.cfg.observer == nil {
		return
	}

	ev.ReadPos = r.warp.ReadPos
	ev.Tick = r.warp.Tick
	ev.OnsetCredit = r.warp.OnsetCredit
	ev.Written = r.written
	r.cfg.observer(*ev)
}

func (r *run) reportProgress() {
	if r.cfg.progress == nil || r.n == 0 {
		return
	}

	percent := int(100 * r.warp.ReadPos / float64(r.n))
	if percent != r.lastPercent && percent%10 == 0 {
		r.lastPercent = percent
		r.cfg.progress(percent)
	}
}

func (r *run) finishProgress() {
	if r.cfg.progress == nil || r.lastPercent == 100 {
		return
	}

	r.lastPercent = 100
	r.cfg.progress(100)
}

func makeComplex(rows, cols int) [][]complex128 {
	out := make([][]complex128, rows)
	for i := range out {
		out[i] = make([]complex128, cols)
	}

	return out
}

func makeReal(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}

	return out
}
