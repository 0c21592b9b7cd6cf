package stretch

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Default parameters.
const (
	// DefaultWindowSeconds is the analysis window duration.
	DefaultWindowSeconds = 0.25
	// DefaultOnsetSensitivity is the band-energy ratio above which a frame
	// counts as an onset.
	DefaultOnsetSensitivity = 10.0
)

// Backend selects the FFT implementation.
type Backend int

const (
	// BackendAuto uses algo-fft and falls back to gonum when algo-fft cannot
	// plan the window length.
	BackendAuto Backend = iota
	// BackendAlgoFFT forces algo-fft.
	BackendAlgoFFT
	// BackendGonum forces gonum's real FFT.
	BackendGonum
)

// String returns the backend name.
func (b Backend) String() string {
	switch b {
	case BackendAuto:
		return "auto"
	case BackendAlgoFFT:
		return "algo-fft"
	case BackendGonum:
		return "gonum"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// ParseBackend maps a backend name to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch name {
	case "", "auto":
		return BackendAuto, nil
	case "algo-fft", "algofft":
		return BackendAlgoFFT, nil
	case "gonum":
		return BackendGonum, nil
	default:
		return BackendAuto, fmt.Errorf("%w: %q", ErrInvalidBackend, name)
	}
}

// Option configures a stretch run.
type Option func(*config)

type config struct {
	windowSeconds    float64
	onsetSensitivity float64
	seed             uint64
	seeded           bool
	rng              *rand.Rand
	progress         func(percent int)
	observer         func(Event)
	backend          Backend
	parallel         bool
}

func defaultConfig() config {
	return config{
		windowSeconds:    DefaultWindowSeconds,
		onsetSensitivity: DefaultOnsetSensitivity,
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

func (c config) validate() error {
	err := validatePositive(ErrInvalidWindow, "window duration", c.windowSeconds)
	if err != nil {
		return err
	}

	if c.onsetSensitivity < 0 || math.IsNaN(c.onsetSensitivity) {
		return fmt.Errorf("%w: onset sensitivity must be >= 0: %f", ErrInvalidSensitivity, c.onsetSensitivity)
	}

	if c.backend < BackendAuto || c.backend > BackendGonum {
		return fmt.Errorf("%w: %d", ErrInvalidBackend, int(c.backend))
	}

	return nil
}

// newRand returns the phase source for one run. A shared *rand.Rand from
// WithRand wins over a seed.
func (c config) newRand() *rand.Rand {
	if c.rng != nil {
		return c.rng
	}

	if c.seeded {
		return rand.New(rand.NewPCG(c.seed, c.seed))
	}

	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// WithWindowSeconds sets the analysis window duration. Longer windows smear
// more and resolve lower frequencies.
func WithWindowSeconds(seconds float64) Option {
	return func(c *config) {
		c.windowSeconds = seconds
	}
}

// WithOnsetSensitivity sets the band-energy ratio that triggers an onset.
// Larger values detect fewer onsets.
func WithOnsetSensitivity(level float64) Option {
	return func(c *config) {
		c.onsetSensitivity = level
	}
}

// WithSeed makes the random phases reproducible.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
		c.seeded = true
	}
}

// WithRand supplies the phase generator. The generator is not safe for
// concurrent use, so do not share it between concurrent runs.
func WithRand(r *rand.Rand) Option {
	return func(c *config) {
		c.rng = r
	}
}

// WithProgress registers a callback receiving the read position as a
// percentage each time it crosses a multiple of 10.
func WithProgress(fn func(percent int)) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithObserver registers a callback invoked once per emitted chunk.
func WithObserver(fn func(Event)) Option {
	return func(c *config) {
		c.observer = fn
	}
}

// WithBackend selects the FFT implementation.
func WithBackend(b Backend) Option {
	return func(c *config) {
		c.backend = b
	}
}

// WithParallelChannels runs the per-channel inverse transforms concurrently.
// Output is identical to the serial path.
func WithParallelChannels(enabled bool) Option {
	return func(c *config) {
		c.parallel = enabled
	}
}
