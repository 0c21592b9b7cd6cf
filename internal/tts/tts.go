// Package tts converts meditation text to speech through an HTTP speech
// service.
package tts

import (
	"context"
	"errors"

	"github.com/cwbudde/algo-stretch/dsp/audio"
)

// Defaults for a calm, slow delivery.
const (
	DefaultSpeed       = 0.9
	DefaultNFEStep     = 64
	DefaultCFGStrength = 2.0
	// RandomSeed asks the service for a fresh seed per request.
	RandomSeed = -1
)

var (
	// ErrEmptyText reports a request without text.
	ErrEmptyText = errors.New("tts: text must not be empty")
	// ErrInvalidSpeed reports a non-positive speech speed.
	ErrInvalidSpeed = errors.New("tts: speed must be > 0")
	// ErrEmptyAudio reports a reply without audio data.
	ErrEmptyAudio = errors.New("tts: received empty audio")
	// ErrContentType reports a reply that is not WAV audio.
	ErrContentType = errors.New("tts: unexpected content type")
	// ErrService reports a non-200 reply from the service.
	ErrService = errors.New("tts: service error")
)

// Request describes one synthesis call.
type Request struct {
	Text string `json:"text"`
	// RefAudio is a service-side path to a voice reference recording.
	RefAudio string `json:"ref_audio,omitempty"`
	// RefText is the transcription of RefAudio.
	RefText     string  `json:"ref_text,omitempty"`
	Speed       float64 `json:"speed"`
	Seed        int64   `json:"seed"`
	NFEStep     int     `json:"nfe_step"`
	CFGStrength float64 `json:"cfg_strength"`
}

// NewRequest returns a Request for text with default parameters.
func NewRequest(text string) Request {
	return Request{
		Text:        text,
		Speed:       DefaultSpeed,
		Seed:        RandomSeed,
		NFEStep:     DefaultNFEStep,
		CFGStrength: DefaultCFGStrength,
	}
}

// withDefaults fills zero numeric fields.
func (r Request) withDefaults() Request {
	if r.Speed == 0 {
		r.Speed = DefaultSpeed
	}

	if r.NFEStep == 0 {
		r.NFEStep = DefaultNFEStep
	}

	if r.CFGStrength == 0 {
		r.CFGStrength = DefaultCFGStrength
	}

	return r
}

// Validate checks the request before it is sent.
func (r Request) Validate() error {
	if r.Text == "" {
		return ErrEmptyText
	}

	if !(r.Speed > 0) {
		return ErrInvalidSpeed
	}

	return nil
}

// Synthesizer turns text into a voice signal.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (audio.Signal, error)
}
