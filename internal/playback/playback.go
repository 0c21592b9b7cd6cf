// Package playback previews rendered signals on the default audio device.
package playback

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-stretch/dsp/audio"
	"github.com/cwbudde/algo-stretch/dsp/core"
)

const pollInterval = 50 * time.Millisecond

// ErrUnsupportedLayout reports a signal oto cannot open.
var ErrUnsupportedLayout = errors.New("playback: unsupported channel layout")

// Player plays signals at one sample rate and channel count. oto allows a
// single context per process, so create one Player and reuse it.
type Player struct {
	ctx        *oto.Context
	sampleRate int
	channels   int
}

// New opens the audio device.
func New(sampleRate, channels int) (*Player, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedLayout, channels)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrUnsupportedLayout, sampleRate)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("playback: open device: %w", err)
	}

	<-ready

	return &Player{ctx: ctx, sampleRate: sampleRate, channels: channels}, nil
}

// Play blocks until sig has been played or ctx is done. volume is linear
// in [0, 1].
func (p *Player) Play(ctx context.Context, sig audio.Signal, volume float64) error {
	if int(sig.SampleRate) != p.sampleRate || sig.NumChannels() != p.channels {
		return fmt.Errorf("%w: got %v Hz x %d, player is %d Hz x %d",
			ErrUnsupportedLayout, sig.SampleRate, sig.NumChannels(), p.sampleRate, p.channels)
	}

	pl := p.ctx.NewPlayer(bytes.NewReader(Encode(sig)))
	defer pl.Close()

	pl.SetVolume(core.Clamp(volume, 0, 1))
	pl.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for pl.IsPlaying() {
		select {
		case <-ctx.Done():
			pl.Pause()
			return fmt.Errorf("playback: %w", ctx.Err())
		case <-ticker.C:
		}
	}

	err := pl.Err()
	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}

	return nil
}

// Encode interleaves sig as little-endian float32 frames.
func Encode(sig audio.Signal) []byte {
	frames := sig.Interleave()
	out := make([]byte, 4*len(frames))

	for i, v := range frames {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(float32(v)))
	}

	return out
}
