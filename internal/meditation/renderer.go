package meditation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/cwbudde/algo-stretch/dsp/audio"
	"github.com/cwbudde/algo-stretch/dsp/mix"
	"github.com/cwbudde/algo-stretch/dsp/resample"
	"github.com/cwbudde/algo-stretch/dsp/stretch"
	"github.com/cwbudde/algo-stretch/internal/tts"
)

var (
	// ErrEmptyVoice reports a voice track without samples.
	ErrEmptyVoice = errors.New("meditation: voice track is empty")
	// ErrEmptyBackground reports a background bed without samples.
	ErrEmptyBackground = errors.New("meditation: background is empty")
	// ErrNoSynthesizer reports a text render without a speech backend.
	ErrNoSynthesizer = errors.New("meditation: no speech synthesizer configured")
	// ErrNoScriptWriter reports a worry render without a script backend.
	ErrNoScriptWriter = errors.New("meditation: no script writer configured")
)

// ScriptWriter produces a meditation script for a worry.
type ScriptWriter interface {
	Write(ctx context.Context, worry string, onChunk func(string)) (string, error)
}

// Result is the outcome of a render.
type Result struct {
	// Script is set by RenderWorry.
	Script string
	Audio  audio.Signal
	// Factor is the stretch factor applied to the background.
	Factor float64
	Mix    mix.Report
}

// Renderer renders meditations. It is safe for concurrent use when its
// collaborators are.
type Renderer struct {
	gainDB       float64
	stretchOpts  []stretch.Option
	resampleOpts []resample.Option
	speech       tts.Synthesizer
	voice        tts.Request
	scripts      ScriptWriter
	progress     ProgressFunc
	logger       *log.Logger
	logEvery     time.Duration
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithBackgroundGain sets the background gain in dB.
func WithBackgroundGain(db float64) Option {
	return func(r *Renderer) { r.gainDB = db }
}

// WithStretchOptions passes opts to every background stretch.
func WithStretchOptions(opts ...stretch.Option) Option {
	return func(r *Renderer) { r.stretchOpts = append(r.stretchOpts, opts...) }
}

// WithResampleOptions passes opts to background rate conversion.
func WithResampleOptions(opts ...resample.Option) Option {
	return func(r *Renderer) { r.resampleOpts = append(r.resampleOpts, opts...) }
}

// WithSynthesizer sets the speech backend used by RenderText and RenderWorry.
// voice carries the reference recording and synthesis parameters; its Text
// is replaced per call.
func WithSynthesizer(s tts.Synthesizer, voice tts.Request) Option {
	return func(r *Renderer) {
		r.speech = s
		r.voice = voice
	}
}

// WithScriptWriter sets the script backend used by RenderWorry.
func WithScriptWriter(w ScriptWriter) Option {
	return func(r *Renderer) { r.scripts = w }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Renderer) { r.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		gainDB:   mix.DefaultBackgroundGainDB,
		voice:    tts.NewRequest(""),
		logger:   log.Default().WithPrefix("meditation"),
		logEvery: 2 * time.Second,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Reporting returns a copy of r reporting to fn.
func (r *Renderer) Reporting(fn ProgressFunc) *Renderer {
	c := *r
	c.progress = fn

	return &c
}

// RenderAudio stretches bg to the length of voice and mixes the two.
// bg is converted to the voice sample rate first.
func (r *Renderer) RenderAudio(ctx context.Context, voice, bg audio.Signal) (Result, error) {
	err := voice.Validate()
	if err != nil {
		return Result{}, fmt.Errorf("meditation: voice: %w", err)
	}

	err = bg.Validate()
	if err != nil {
		return Result{}, fmt.Errorf("meditation: background: %w", err)
	}

	if voice.Len() == 0 {
		return Result{}, ErrEmptyVoice
	}

	if bg.Len() == 0 {
		return Result{}, ErrEmptyBackground
	}

	if bg.SampleRate != voice.SampleRate {
		r.logger.Debug("resampling background", "from", bg.SampleRate, "to", voice.SampleRate)

		bg, err = resample.Signal(bg, voice.SampleRate, r.resampleOpts...)
		if err != nil {
			return Result{}, fmt.Errorf("meditation: resample background: %w", err)
		}
	}

	factor := float64(voice.Len()) / float64(bg.Len())
	r.logger.Info("stretching background",
		"voice", voice.Duration(), "background", bg.Duration(), "factor", fmt.Sprintf("%.2f", factor))

	r.report(StageStretch, ProgressStretchStart)

	stretched, err := r.stretch(ctx, bg, factor)
	if err != nil {
		return Result{}, err
	}

	r.report(StageMix, ProgressMix)

	var rep mix.Report

	out, err := mix.Mix(voice, stretched, r.gainDB, mix.WithReport(&rep), mix.WithResampleOptions(r.resampleOpts...))
	if err != nil {
		return Result{}, fmt.Errorf("meditation: mix: %w", err)
	}

	if rep.Normalized {
		r.logger.Debug("normalized mix", "peak", rep.Peak)
	}

	r.report(StageDone, ProgressDone)

	return Result{Audio: out, Factor: factor, Mix: rep}, nil
}

func (r *Renderer) stretch(ctx context.Context, bg audio.Signal, factor float64) (audio.Signal, error) {
	logs := rate.Sometimes{Interval: r.logEvery}

	opts := append([]stretch.Option(nil), r.stretchOpts...)
	opts = append(opts, stretch.WithProgress(func(p int) {
		r.report(StageStretch, stretchPercent(p))
		logs.Do(func() { r.logger.Debug("stretch progress", "percent", p) })
	}))

	out, err := stretch.StretchContext(ctx, bg, factor, opts...)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("meditation: stretch background: %w", err)
	}

	return out, nil
}

// RenderText synthesizes text and renders it over bg.
func (r *Renderer) RenderText(ctx context.Context, text string, bg audio.Signal) (Result, error) {
	if r.speech == nil {
		return Result{}, ErrNoSynthesizer
	}

	r.report(StageSpeech, ProgressSpeech)

	req := r.voice
	req.Text = text

	start := time.Now()

	voice, err := r.speech.Synthesize(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("meditation: synthesize: %w", err)
	}

	r.logger.Info("voice ready", "duration", voice.Duration(), "took", time.Since(start).Round(time.Millisecond))

	return r.RenderAudio(ctx, voice, bg)
}

// RenderWorry writes a script for worry, then renders it as text over bg.
func (r *Renderer) RenderWorry(ctx context.Context, worry string, bg audio.Signal) (Result, error) {
	if r.scripts == nil {
		return Result{}, ErrNoScriptWriter
	}

	r.report(StageScript, ProgressScript)

	script, err := r.scripts.Write(ctx, worry, nil)
	if err != nil {
		return Result{}, fmt.Errorf("meditation: script: %w", err)
	}

	r.logger.Info("script ready", "bytes", len(script))

	res, err := r.RenderText(ctx, script, bg)
	res.Script = script

	return res, err
}
