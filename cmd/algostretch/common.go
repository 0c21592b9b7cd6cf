package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-stretch/dsp/audio"
	"github.com/cwbudde/algo-stretch/dsp/core"
	"github.com/cwbudde/algo-stretch/internal/meditation"
	"github.com/cwbudde/algo-stretch/internal/ollama"
	"github.com/cwbudde/algo-stretch/internal/tts"
	"github.com/cwbudde/algo-stretch/internal/wav"
)

// renderFlags are shared by the audio, text and personalized commands.
type renderFlags struct {
	background     string
	output         string
	timeResolution float64
	bgGain         float64
}

func (f *renderFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.background, "background", "b", "", "ambient background WAV file (default from config)")
	fl.StringVarP(&f.output, "output", "o", "meditation_output.wav", "output meditation WAV file")
	fl.Float64VarP(&f.timeResolution, "time-resolution", "t", 0, "stretch window in seconds (default from config)")
	fl.Float64VarP(&f.bgGain, "bg-gain", "g", 0, "background gain in dB (default from config)")
}

// apply overlays changed flags onto the loaded config.
func (f *renderFlags) apply(cmd *cobra.Command) {
	fl := cmd.Flags()

	if fl.Changed("background") {
		cfg.Mix.BackgroundPath = f.background
	}

	if fl.Changed("time-resolution") {
		cfg.Stretch.WindowSeconds = f.timeResolution
	}

	if fl.Changed("bg-gain") {
		cfg.Mix.BackgroundGainDB = f.bgGain
	}
}

// voiceFlags are shared by the commands that synthesize speech.
type voiceFlags struct {
	refAudio    string
	refText     string
	speed       float64
	nfeStep     int
	cfgStrength float64
	seed        int64
}

func (f *voiceFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.refAudio, "ref-audio", "r", "", "reference audio for voice cloning (default from config)")
	fl.StringVar(&f.refText, "ref-text", "", "reference transcription (default: <ref-audio>.reference.txt)")
	fl.Float64Var(&f.speed, "speed", 0, "speech speed multiplier (default from config)")
	fl.IntVar(&f.nfeStep, "nfe-step", 0, "flow matching steps (default from config)")
	fl.Float64Var(&f.cfgStrength, "cfg-strength", 0, "classifier-free guidance strength (default from config)")
	fl.Int64Var(&f.seed, "seed", 0, "speech seed, -1 for random (default from config)")
}

func (f *voiceFlags) apply(cmd *cobra.Command) {
	fl := cmd.Flags()

	if fl.Changed("ref-audio") {
		cfg.TTS.VoiceRefAudio = f.refAudio
	}

	if fl.Changed("ref-text") {
		cfg.TTS.VoiceRefText = f.refText
	}

	if fl.Changed("speed") {
		cfg.TTS.Speed = f.speed
	}

	if fl.Changed("nfe-step") {
		cfg.TTS.NFEStep = f.nfeStep
	}

	if fl.Changed("cfg-strength") {
		cfg.TTS.CFGStrength = f.cfgStrength
	}

	if fl.Changed("seed") {
		cfg.TTS.Seed = f.seed
	}
}

// voiceRequest builds the synthesis template from the config. A missing
// reference transcription is read from "<ref>.reference.txt" when present.
func voiceRequest() tts.Request {
	req := tts.NewRequest("")
	req.RefAudio = cfg.TTS.VoiceRefAudio
	req.RefText = cfg.TTS.VoiceRefText
	req.Speed = cfg.TTS.Speed
	req.NFEStep = cfg.TTS.NFEStep
	req.CFGStrength = cfg.TTS.CFGStrength
	req.Seed = cfg.TTS.Seed

	if req.RefText == "" && req.RefAudio != "" {
		path := strings.TrimSuffix(req.RefAudio, filepath.Ext(req.RefAudio)) + ".reference.txt"

		data, err := os.ReadFile(path)
		if err == nil {
			req.RefText = strings.TrimSpace(string(data))
		}
	}

	return req
}

func newSynthesizer() *tts.HTTPSynthesizer {
	return tts.NewHTTPSynthesizer(tts.HTTPConfig{
		BaseURL:           cfg.TTS.URL,
		Timeout:           cfg.TTSTimeout(),
		RequestsPerMinute: cfg.TTS.RequestsPerMinute,
		Logger:            logger.WithPrefix("tts"),
	})
}

func newScriptWriter() *ollama.ScriptWriter {
	client := ollama.NewClient(cfg.Ollama.URL, cfg.Ollama.Model,
		ollama.WithTimeout(cfg.OllamaTimeout()),
		ollama.WithLogger(logger.WithPrefix("ollama")),
	)

	return ollama.NewScriptWriter(client, cfg.Ollama.ScriptWords)
}

// newRenderer builds a renderer from the config.
func newRenderer(opts ...meditation.Option) *meditation.Renderer {
	base := []meditation.Option{
		meditation.WithBackgroundGain(cfg.Mix.BackgroundGainDB),
		meditation.WithStretchOptions(cfg.StretchOptions()...),
		meditation.WithLogger(logger.WithPrefix("meditation")),
	}

	return meditation.New(append(base, opts...)...)
}

// stageLogger logs each stage change once.
func stageLogger() meditation.ProgressFunc {
	last := meditation.Stage("")

	return func(stage meditation.Stage, percent int) {
		if stage != last {
			last = stage
			logger.Info(string(stage), "progress", fmt.Sprintf("%d%%", percent))
		}
	}
}

func readSignal(path string) (audio.Signal, error) {
	sig, err := wav.ReadFile(path)
	if err != nil {
		return audio.Signal{}, err
	}

	logger.Debug("read", "path", path, "rate", sig.SampleRate, "channels", sig.NumChannels(),
		"samples", humanize.Comma(int64(sig.Len())), "duration", sig.Duration().Round(time.Millisecond))

	return sig, nil
}

func writeSignal(path string, sig audio.Signal) error {
	dir := filepath.Dir(path)
	if dir != "." {
		err := os.MkdirAll(dir, 0o755)
		if err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	err := wav.WriteFile(path, sig, cfg.WAVFormat())
	if err != nil {
		return err
	}

	st, err := os.Stat(path)
	if err != nil {
		return err
	}

	logger.Info("wrote", "path", path, "size", humanize.Bytes(uint64(st.Size())),
		"duration", sig.Duration().Round(time.Second), "channels", sig.NumChannels(), "peak", dbfs(sig.Peak()))

	return nil
}

// dbfs formats a linear peak relative to full scale.
func dbfs(peak float64) string {
	return fmt.Sprintf("%.1f dBFS", core.LinearToDB(peak))
}

// commandContext returns the context cmd was executed with.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
