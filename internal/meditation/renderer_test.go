package meditation

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-stretch/dsp/audio"
	"github.com/cwbudde/algo-stretch/dsp/stretch"
	"github.com/cwbudde/algo-stretch/internal/testutil"
	"github.com/cwbudde/algo-stretch/internal/tts"
)

type fakeSpeech struct {
	got   tts.Request
	voice audio.Signal
	err   error
}

func (f *fakeSpeech) Synthesize(_ context.Context, req tts.Request) (audio.Signal, error) {
	f.got = req
	return f.voice, f.err
}

type fakeScripts struct {
	worry  string
	script string
	err    error
}

func (f *fakeScripts) Write(_ context.Context, worry string, _ func(string)) (string, error) {
	f.worry = worry
	return f.script, f.err
}

type step struct {
	stage   Stage
	percent int
}

func quietLogger() *log.Logger {
	l := log.New(io.Discard)
	l.SetLevel(log.FatalLevel)

	return l
}

func newTestRenderer(steps *[]step, opts ...Option) *Renderer {
	base := []Option{
		WithLogger(quietLogger()),
		WithStretchOptions(stretch.WithWindowSeconds(0.05), stretch.WithSeed(7)),
		WithProgress(func(s Stage, p int) { *steps = append(*steps, step{s, p}) }),
	}

	return New(append(base, opts...)...)
}

func voiceTrack(rate float64, n int) audio.Signal {
	return audio.Mono(rate, testutil.DeterministicSine(220, rate, 0.5, n))
}

func bedTrack(rate float64, n int) audio.Signal {
	return audio.Stereo(rate, testutil.DeterministicNoise(1, 0.3, n), testutil.DeterministicNoise(2, 0.3, n))
}

func requireMonotonic(t *testing.T, steps []step) {
	t.Helper()

	for i := 1; i < len(steps); i++ {
		require.GreaterOrEqual(t, steps[i].percent, steps[i-1].percent, "steps %v", steps)
	}
}

func TestRenderAudio(t *testing.T) {
	var steps []step

	r := newTestRenderer(&steps)

	res, err := r.RenderAudio(context.Background(), voiceTrack(8000, 8000), bedTrack(8000, 4000))
	require.NoError(t, err)

	assert.InDelta(t, 2.0, res.Factor, 1e-12)
	assert.Equal(t, 8000, res.Audio.Len())
	assert.Equal(t, 1, res.Audio.NumChannels())
	assert.LessOrEqual(t, res.Audio.Peak(), 1.0+1e-12)
	assert.Empty(t, res.Script)
	testutil.RequireFinite(t, res.Audio)

	require.NotEmpty(t, steps)
	assert.Equal(t, step{StageStretch, ProgressStretchStart}, steps[0])
	assert.Contains(t, steps, step{StageMix, ProgressMix})
	assert.Equal(t, step{StageDone, ProgressDone}, steps[len(steps)-1])
	requireMonotonic(t, steps)

	for _, s := range steps {
		if s.stage == StageStretch {
			assert.GreaterOrEqual(t, s.percent, ProgressStretchStart)
			assert.LessOrEqual(t, s.percent, ProgressStretchEnd)
		}
	}
}

func TestRenderAudioResamplesBackground(t *testing.T) {
	var steps []step

	res, err := newTestRenderer(&steps).RenderAudio(context.Background(), voiceTrack(8000, 8000), bedTrack(4000, 2000))
	require.NoError(t, err)

	assert.InDelta(t, 2.0, res.Factor, 1e-12)
	assert.False(t, res.Mix.Resampled)
	assert.InDelta(t, 8000.0, res.Audio.SampleRate, 0)
	assert.Equal(t, 8000, res.Audio.Len())
}

func TestRenderAudioErrors(t *testing.T) {
	ok := voiceTrack(8000, 100)

	tests := []struct {
		name  string
		voice audio.Signal
		bg    audio.Signal
		want  error
	}{
		{name: "empty voice", voice: audio.Mono(8000, nil), bg: ok, want: ErrEmptyVoice},
		{name: "empty background", voice: ok, bg: audio.Mono(8000, nil), want: ErrEmptyBackground},
		{name: "invalid voice", voice: audio.Signal{SampleRate: 8000}, bg: ok, want: audio.ErrNoChannels},
		{name: "invalid background", voice: ok, bg: audio.Mono(0, []float64{1}), want: audio.ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var steps []step

			_, err := newTestRenderer(&steps).RenderAudio(context.Background(), tt.voice, tt.bg)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRenderAudioCanceled(t *testing.T) {
	var steps []step

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRenderer(&steps).RenderAudio(ctx, voiceTrack(8000, 8000), bedTrack(8000, 4000))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRenderText(t *testing.T) {
	var steps []step

	speech := &fakeSpeech{voice: voiceTrack(8000, 6000)}
	voice := tts.NewRequest("")
	voice.RefAudio = "samples/ref.wav"

	r := newTestRenderer(&steps, WithSynthesizer(speech, voice))

	res, err := r.RenderText(context.Background(), "Breathe.", bedTrack(8000, 3000))
	require.NoError(t, err)

	assert.Equal(t, "Breathe.", speech.got.Text)
	assert.Equal(t, "samples/ref.wav", speech.got.RefAudio)
	assert.InDelta(t, tts.DefaultSpeed, speech.got.Speed, 0)
	assert.Equal(t, 6000, res.Audio.Len())
	assert.Equal(t, step{StageSpeech, ProgressSpeech}, steps[0])
	requireMonotonic(t, steps)
}

func TestRenderWorry(t *testing.T) {
	var steps []step

	scripts := &fakeScripts{script: "Relax your shoulders."}
	speech := &fakeSpeech{voice: voiceTrack(8000, 6000)}

	r := newTestRenderer(&steps, WithSynthesizer(speech, tts.NewRequest("")), WithScriptWriter(scripts))

	res, err := r.RenderWorry(context.Background(), "deadlines", bedTrack(8000, 3000))
	require.NoError(t, err)

	assert.Equal(t, "deadlines", scripts.worry)
	assert.Equal(t, "Relax your shoulders.", res.Script)
	assert.Equal(t, res.Script, speech.got.Text)
	assert.Equal(t, step{StageScript, ProgressScript}, steps[0])
	assert.Equal(t, step{StageDone, ProgressDone}, steps[len(steps)-1])
	requireMonotonic(t, steps)
}

func TestRenderCollaboratorErrors(t *testing.T) {
	var steps []step

	bg := bedTrack(8000, 3000)

	_, err := newTestRenderer(&steps).RenderText(context.Background(), "x", bg)
	require.ErrorIs(t, err, ErrNoSynthesizer)

	_, err = newTestRenderer(&steps).RenderWorry(context.Background(), "x", bg)
	require.ErrorIs(t, err, ErrNoScriptWriter)

	boom := errors.New("boom")

	_, err = newTestRenderer(&steps, WithSynthesizer(&fakeSpeech{err: boom}, tts.Request{})).
		RenderText(context.Background(), "x", bg)
	require.ErrorIs(t, err, boom)

	res, err := newTestRenderer(&steps,
		WithScriptWriter(&fakeScripts{script: "kept"}),
		WithSynthesizer(&fakeSpeech{err: boom}, tts.Request{}),
	).RenderWorry(context.Background(), "x", bg)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "kept", res.Script)
}

func TestReportingCopies(t *testing.T) {
	var a, b []step

	r := newTestRenderer(&a)
	c := r.Reporting(func(s Stage, p int) { b = append(b, step{s, p}) })

	_, err := c.RenderAudio(context.Background(), voiceTrack(8000, 4000), bedTrack(8000, 4000))
	require.NoError(t, err)

	assert.Empty(t, a)
	assert.NotEmpty(t, b)
}

func TestStretchPercent(t *testing.T) {
	assert.Equal(t, 40, stretchPercent(-5))
	assert.Equal(t, 40, stretchPercent(0))
	assert.Equal(t, 65, stretchPercent(50))
	assert.Equal(t, 90, stretchPercent(100))
	assert.Equal(t, 90, stretchPercent(300))
}
