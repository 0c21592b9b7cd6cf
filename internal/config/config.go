// Package config loads algostretch settings from a TOML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/pelletier/go-toml/v2"

	"github.com/cwbudde/algo-stretch/dsp/stretch"
	"github.com/cwbudde/algo-stretch/internal/wav"
)

// AppName names the config scope.
const AppName = "algo-stretch"

// FileName is the config file name inside the user config dir.
const FileName = "config.toml"

// ErrInvalid reports a setting outside its valid range.
var ErrInvalid = errors.New("config: invalid setting")

// StretchConfig holds background stretch settings.
type StretchConfig struct {
	WindowSeconds    float64 `toml:"window_seconds"    env:"ALGOSTRETCH_STRETCH_WINDOW_SECONDS"`
	OnsetSensitivity float64 `toml:"onset_sensitivity" env:"ALGOSTRETCH_STRETCH_ONSET_SENSITIVITY"`
	// Seed 0 draws fresh phases on every run.
	Seed     uint64 `toml:"seed"     env:"ALGOSTRETCH_STRETCH_SEED"`
	Backend  string `toml:"backend"  env:"ALGOSTRETCH_STRETCH_BACKEND"`
	Parallel bool   `toml:"parallel" env:"ALGOSTRETCH_STRETCH_PARALLEL"`
}

// MixConfig holds voice/background mix settings.
type MixConfig struct {
	BackgroundGainDB float64 `toml:"background_gain_db" env:"ALGOSTRETCH_MIX_BACKGROUND_GAIN_DB"`
	BackgroundPath   string  `toml:"background_path"    env:"ALGOSTRETCH_MIX_BACKGROUND_PATH"`
	Format           string  `toml:"format"             env:"ALGOSTRETCH_MIX_FORMAT"`
}

// OllamaConfig holds script generation settings.
type OllamaConfig struct {
	URL            string `toml:"url"             env:"ALGOSTRETCH_OLLAMA_URL"`
	Model          string `toml:"model"           env:"ALGOSTRETCH_OLLAMA_MODEL"`
	ScriptWords    int    `toml:"script_words"    env:"ALGOSTRETCH_OLLAMA_SCRIPT_WORDS"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"ALGOSTRETCH_OLLAMA_TIMEOUT_SECONDS"`
}

// TTSConfig holds speech service settings.
type TTSConfig struct {
	URL               string  `toml:"url"                 env:"ALGOSTRETCH_TTS_URL"`
	VoiceRefAudio     string  `toml:"voice_ref_audio"     env:"ALGOSTRETCH_TTS_VOICE_REF_AUDIO"`
	VoiceRefText      string  `toml:"voice_ref_text"      env:"ALGOSTRETCH_TTS_VOICE_REF_TEXT"`
	Speed             float64 `toml:"speed"               env:"ALGOSTRETCH_TTS_SPEED"`
	NFEStep           int     `toml:"nfe_step"            env:"ALGOSTRETCH_TTS_NFE_STEP"`
	CFGStrength       float64 `toml:"cfg_strength"        env:"ALGOSTRETCH_TTS_CFG_STRENGTH"`
	Seed              int64   `toml:"seed"                env:"ALGOSTRETCH_TTS_SEED"`
	RequestsPerMinute int     `toml:"requests_per_minute" env:"ALGOSTRETCH_TTS_REQUESTS_PER_MINUTE"`
	TimeoutSeconds    int     `toml:"timeout_seconds"     env:"ALGOSTRETCH_TTS_TIMEOUT_SECONDS"`
}

// NATSConfig holds job transport settings.
type NATSConfig struct {
	URL             string `toml:"url"              env:"ALGOSTRETCH_NATS_URL"`
	GenerateSubject string `toml:"generate_subject" env:"ALGOSTRETCH_NATS_GENERATE_SUBJECT"`
	StatusSubject   string `toml:"status_subject"   env:"ALGOSTRETCH_NATS_STATUS_SUBJECT"`
	AudioBucket     string `toml:"audio_bucket"     env:"ALGOSTRETCH_NATS_AUDIO_BUCKET"`
	MaxConcurrent   int    `toml:"max_concurrent"   env:"ALGOSTRETCH_NATS_MAX_CONCURRENT"`
}

// PathsConfig holds filesystem locations.
type PathsConfig struct {
	OutputDir string `toml:"output_dir" env:"ALGOSTRETCH_PATHS_OUTPUT_DIR"`
}

// Config is the root configuration.
type Config struct {
	Stretch StretchConfig `toml:"stretch"`
	Mix     MixConfig     `toml:"mix"`
	Ollama  OllamaConfig  `toml:"ollama"`
	TTS     TTSConfig     `toml:"tts"`
	NATS    NATSConfig    `toml:"nats"`
	Paths   PathsConfig   `toml:"paths"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Stretch: StretchConfig{
			WindowSeconds:    stretch.DefaultWindowSeconds,
			OnsetSensitivity: stretch.DefaultOnsetSensitivity,
			Backend:          stretch.BackendAuto.String(),
		},
		Mix: MixConfig{
			BackgroundGainDB: 20,
			BackgroundPath:   "samples/breakfill.wav",
			Format:           wav.FormatPCM16.String(),
		},
		Ollama: OllamaConfig{
			URL:            "http://localhost:11434",
			Model:          "phi4",
			ScriptWords:    1200,
			TimeoutSeconds: 180,
		},
		TTS: TTSConfig{
			URL:               "http://localhost:8000",
			VoiceRefAudio:     "samples/ref.wav",
			Speed:             0.9,
			NFEStep:           64,
			CFGStrength:       2,
			Seed:              -1,
			RequestsPerMinute: 30,
			TimeoutSeconds:    600,
		},
		NATS: NATSConfig{
			URL:             "nats://127.0.0.1:4222",
			GenerateSubject: "meditation.generate",
			StatusSubject:   "meditation.status",
			AudioBucket:     "meditations",
			MaxConcurrent:   1,
		},
		Paths: PathsConfig{
			OutputDir: ".",
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	scope := gap.NewScope(gap.User, AppName)

	path, err := scope.ConfigPath(FileName)
	if err != nil {
		return "", fmt.Errorf("config: locate config dir: %w", err)
	}

	return path, nil
}

// Load builds a Config from Defaults, the TOML file at path and
// ALGOSTRETCH_* environment variables, in that order. An empty path reads
// DefaultPath when that file exists.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		err := cfg.readFile(path)

		switch {
		case err == nil:
		case !explicit && errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, err
		}
	}

	err := env.Parse(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}

	err = cfg.expandPaths()
	if err != nil {
		return Config{}, err
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("config: expand %q: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("config: read: %w", err)
	}

	return c.Decode(bytes.NewReader(data))
}

// Decode overlays TOML from r onto c. Unknown keys are rejected.
func (c *Config) Decode(r io.Reader) error {
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()

	err := dec.Decode(c)
	if err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}

	return nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)

	err := enc.Encode(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	return nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Mix.BackgroundPath, &c.TTS.VoiceRefAudio, &c.Paths.OutputDir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("config: expand %q: %w", *p, err)
		}

		*p = expanded
	}

	return nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error

	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	s := c.Stretch
	check(s.WindowSeconds > 0 && !math.IsInf(s.WindowSeconds, 0), "stretch.window_seconds must be > 0: %v", s.WindowSeconds)
	check(s.OnsetSensitivity >= 0, "stretch.onset_sensitivity must be >= 0: %v", s.OnsetSensitivity)

	_, err := stretch.ParseBackend(s.Backend)
	check(err == nil, "stretch.backend: %q", s.Backend)

	check(!math.IsNaN(c.Mix.BackgroundGainDB) && !math.IsInf(c.Mix.BackgroundGainDB, 0),
		"mix.background_gain_db must be finite: %v", c.Mix.BackgroundGainDB)

	_, err = wav.ParseFormat(c.Mix.Format)
	check(err == nil, "mix.format: %q", c.Mix.Format)

	check(c.Ollama.URL != "", "ollama.url must be set")
	check(c.Ollama.TimeoutSeconds > 0, "ollama.timeout_seconds must be > 0: %d", c.Ollama.TimeoutSeconds)
	check(c.TTS.URL != "", "tts.url must be set")
	check(c.TTS.Speed > 0, "tts.speed must be > 0: %v", c.TTS.Speed)
	check(c.TTS.NFEStep > 0, "tts.nfe_step must be > 0: %d", c.TTS.NFEStep)
	check(c.TTS.RequestsPerMinute > 0, "tts.requests_per_minute must be > 0: %d", c.TTS.RequestsPerMinute)
	check(c.TTS.TimeoutSeconds > 0, "tts.timeout_seconds must be > 0: %d", c.TTS.TimeoutSeconds)
	check(c.NATS.GenerateSubject != "", "nats.generate_subject must be set")
	check(c.NATS.StatusSubject != "", "nats.status_subject must be set")
	check(c.NATS.AudioBucket != "", "nats.audio_bucket must be set")
	check(c.NATS.MaxConcurrent > 0, "nats.max_concurrent must be > 0: %d", c.NATS.MaxConcurrent)

	return errors.Join(errs...)
}

// StretchOptions converts the stretch section to stretch options.
func (c Config) StretchOptions() []stretch.Option {
	backend, _ := stretch.ParseBackend(c.Stretch.Backend)

	opts := []stretch.Option{
		stretch.WithWindowSeconds(c.Stretch.WindowSeconds),
		stretch.WithOnsetSensitivity(c.Stretch.OnsetSensitivity),
		stretch.WithBackend(backend),
		stretch.WithParallelChannels(c.Stretch.Parallel),
	}

	if c.Stretch.Seed != 0 {
		opts = append(opts, stretch.WithSeed(c.Stretch.Seed))
	}

	return opts
}

// WAVFormat returns the configured output encoding.
func (c Config) WAVFormat() wav.Format {
	f, err := wav.ParseFormat(c.Mix.Format)
	if err != nil {
		return wav.FormatPCM16
	}

	return f
}

// OllamaTimeout returns the script generation timeout.
func (c Config) OllamaTimeout() time.Duration {
	return time.Duration(c.Ollama.TimeoutSeconds) * time.Second
}

// TTSTimeout returns the synthesis timeout.
func (c Config) TTSTimeout() time.Duration {
	return time.Duration(c.TTS.TimeoutSeconds) * time.Second
}
