package stretch

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/dsp/fourier"
)

// fftBackend transforms one real frame of Size samples to Half+1 bins and
// back. Inverse is normalized so Inverse(Forward(x)) == x. Implementations
// keep scratch buffers and are not safe for concurrent use.
type fftBackend interface {
	Forward(dst []complex128, src []float64) error
	Inverse(dst []float64, src []complex128) error
}

func newBackend(b Backend, size int) (fftBackend, error) {
	switch b {
	case BackendAlgoFFT:
		return newAlgoBackend(size)
	case BackendGonum:
		return newGonumBackend(size), nil
	case BackendAuto:
		fb, err := newAlgoBackend(size)
		if err != nil {
			return newGonumBackend(size), nil
		}

		return fb, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidBackend, int(b))
	}
}

// newBackends returns one backend per channel, all of the same kind.
func newBackends(b Backend, size, channels int) ([]fftBackend, error) {
	kind := b
	out := make([]fftBackend, channels)

	for i := range out {
		fb, err := newBackend(kind, size)
		if err != nil {
			return nil, err
		}

		if kind == BackendAuto {
			if _, ok := fb.(*gonumBackend); ok {
				kind = BackendGonum
			} else {
				kind = BackendAlgoFFT
			}
		}

		out[i] = fb
	}

	return out, nil
}

type algoBackend struct {
	size int
	plan *algofft.Plan[complex128]
	buf  []complex128
	out  []complex128
}

func newAlgoBackend(size int) (*algoBackend, error) {
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("stretch: algo-fft plan for %d: %w", size, err)
	}

	return &algoBackend{
		size: size,
		plan: plan,
		buf:  make([]complex128, size),
		out:  make([]complex128, size),
	}, nil
}

func (a *algoBackend) Forward(dst []complex128, src []float64) error {
	for i, v := range src {
		a.buf[i] = complex(v, 0)
	}

	err := a.plan.Forward(a.buf, a.buf)
	if err != nil {
		return err
	}

	copy(dst, a.buf[:a.size/2+1])

	return nil
}

func (a *algoBackend) Inverse(dst []float64, src []complex128) error {
	half := a.size / 2

	// Rebuild the Hermitian spectrum from the half spectrum.
	a.buf[0] = complex(real(src[0]), 0)
	for k := 1; k < half; k++ {
		a.buf[k] = src[k]
		a.buf[a.size-k] = complex(real(src[k]), -imag(src[k]))
	}

	a.buf[half] = complex(real(src[half]), 0)

	err := a.plan.Inverse(a.out, a.buf)
	if err != nil {
		return err
	}

	for i := range dst {
		dst[i] = real(a.out[i])
	}

	return nil
}

type gonumBackend struct {
	size int
	fft  *fourier.FFT
	spec []complex128
}

func newGonumBackend(size int) *gonumBackend {
	return &gonumBackend{
		size: size,
		fft:  fourier.NewFFT(size),
		spec: make([]complex128, size/2+1),
	}
}

func (g *gonumBackend) Forward(dst []complex128, src []float64) error {
	g.fft.Coefficients(dst, src)
	return nil
}

func (g *gonumBackend) Inverse(dst []float64, src []complex128) error {
	copy(g.spec, src)

	half := g.size / 2
	g.spec[0] = complex(real(g.spec[0]), 0)
	g.spec[half] = complex(real(g.spec[half]), 0)

	g.fft.Sequence(dst, g.spec)
	vecmath.ScaleBlock(dst, dst, 1/float64(g.size))

	return nil
}
