package resample

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-stretch/dsp/window"
)

// prototype is a lowpass FIR split into up polyphase branches.
type prototype struct {
	taps   []float64
	phases [][]float64
	// longest branch length
	span int
}

func designPrototype(up, down int, cfg config) (prototype, error) {
	nTaps := cfg.tapsPerPhase * up

	fc := 0.5 / float64(max(up, down)) * cfg.cutoffScale
	if fc <= 0 || fc >= 0.5 {
		return prototype{}, fmt.Errorf("%w: cutoff %.6f", ErrInvalidFilter, fc)
	}

	taps, err := window.Kaiser(nTaps, cfg.kaiserBeta)
	if err != nil {
		return prototype{}, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}

	center := 0.5 * float64(nTaps-1)
	sum := 0.0

	for n := range taps {
		taps[n] *= 2 * fc * sinc(2*fc*(float64(n)-center))
		sum += taps[n]
	}

	if sum == 0 {
		return prototype{}, fmt.Errorf("%w: zero DC gain", ErrInvalidFilter)
	}

	// Unity passband gain after zero stuffing by up.
	scale := float64(up) / sum
	for n := range taps {
		taps[n] *= scale
	}

	p := prototype{taps: taps, phases: make([][]float64, up)}

	for ph := range up {
		branch := make([]float64, 0, (nTaps-ph+up-1)/up)
		for i := ph; i < nTaps; i += up {
			branch = append(branch, taps[i])
		}

		p.span = max(p.span, len(branch))
		p.phases[ph] = branch
	}

	return p, nil
}

// delay returns the prototype group delay in output samples.
func (p prototype) delay(down int) int {
	return int(math.Round(0.5 * float64(len(p.taps)-1) / float64(down)))
}

// approximateRatio returns num/den ~ v with den <= maxDen by continued
// fractions.
func approximateRatio(v float64, maxDen int) (num, den int) {
	if maxDen <= 0 {
		maxDen = defaultMaxDenominator
	}

	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}

	p0, q0 := 1.0, 0.0
	p1, q1 := math.Floor(v), 1.0
	x := v

	for {
		frac := x - math.Floor(x)
		if frac < 1e-12 {
			break
		}

		x = 1 / frac
		a := math.Floor(x)

		q2 := a*q1 + q0
		if q2 > float64(maxDen) {
			break
		}

		p0, p1 = p1, a*p1+p0
		q0, q1 = q1, q2
	}

	num = int(math.Round(p1))
	den = int(math.Round(q1))

	if num <= 0 || den <= 0 {
		return 1, 1
	}

	g := gcd(num, den)

	return num / g, den / g
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}

	if b < 0 {
		b = -b
	}

	for b != 0 {
		a, b = b, a%b
	}

	if a == 0 {
		return 1
	}

	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	pix := math.Pi * x

	return math.Sin(pix) / pix
}
