package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-stretch/dsp/audio"
)

func TestMaxAbsDiff(t *testing.T) {
	a := audio.Stereo(8000, []float64{1, 2, 3}, []float64{0, 0, 0})
	b := audio.Stereo(8000, []float64{1, 2.1, 3}, []float64{0, -0.25, 0})

	d, err := MaxAbsDiff(a, b)
	if err != nil {
		t.Fatalf("MaxAbsDiff error: %v", err)
	}

	if math.Abs(d-0.25) > 1e-15 {
		t.Fatalf("MaxAbsDiff = %v, want 0.25", d)
	}

	d, err = MaxAbsDiff(a, a)
	if err != nil || d != 0 {
		t.Fatalf("MaxAbsDiff(a, a) = %v, %v; want 0, nil", d, err)
	}
}

func TestMaxAbsDiffShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		a, b audio.Signal
	}{
		{name: "length", a: audio.Mono(8000, []float64{1}), b: audio.Mono(8000, []float64{1, 2})},
		{name: "channels", a: audio.Mono(8000, []float64{1}), b: audio.Stereo(8000, []float64{1}, []float64{1})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := MaxAbsDiff(tt.a, tt.b); err == nil {
				t.Fatal("expected error for shape mismatch")
			}
		})
	}
}

func TestFirstMismatch(t *testing.T) {
	i, d, ok := firstMismatch([]float64{0, 0.5, 1}, []float64{0, 0.5, 1.5}, 0.1)
	if ok || i != 2 || d != 0.5 {
		t.Fatalf("firstMismatch = %d, %v, %v; want 2, 0.5, false", i, d, ok)
	}

	_, _, ok = firstMismatch([]float64{math.NaN()}, []float64{0}, 1)
	if ok {
		t.Fatal("NaN sample compared as equal")
	}

	_, _, ok = firstMismatch([]float64{1, 2}, []float64{1.05, 2}, 0.1)
	if !ok {
		t.Fatal("values within eps reported as mismatch")
	}
}

func TestSignalAssertionsPass(t *testing.T) {
	sig := audio.Stereo(8000, []float64{0.5, -1}, []float64{1, 0})

	RequireSignalNearlyEqual(t, sig, sig.Clone(), 0)
	RequireFinite(t, sig)
	RequireBounded(t, sig, 1)
}
