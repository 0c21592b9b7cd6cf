package testutil

import (
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-stretch/dsp/audio"
)

// RequireSliceNearlyEqual fails t at the first element pair of got and want
// that differs by more than eps, or when the lengths differ.
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	i, diff, ok := firstMismatch(got, want, eps)
	if !ok {
		t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
	}
}

// RequireSignalNearlyEqual compares two signals channel by channel. Sample
// rate and channel count must match exactly.
func RequireSignalNearlyEqual(t *testing.T, got, want audio.Signal, eps float64) {
	t.Helper()

	if got.SampleRate != want.SampleRate {
		t.Fatalf("sample rate: got %v, want %v", got.SampleRate, want.SampleRate)
	}

	if got.NumChannels() != want.NumChannels() {
		t.Fatalf("channels: got %d, want %d", got.NumChannels(), want.NumChannels())
	}

	for c := range want.Channels {
		g, w := got.Channels[c], want.Channels[c]
		if len(g) != len(w) {
			t.Fatalf("channel %d: length %d, want %d", c, len(g), len(w))
		}

		i, diff, ok := firstMismatch(g, w, eps)
		if !ok {
			t.Fatalf("channel %d index %d: got %v, want %v (diff %v > eps %v)", c, i, g[i], w[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any sample of sig is NaN or Inf.
func RequireFinite(t *testing.T, sig audio.Signal) {
	t.Helper()

	for c, ch := range sig.Channels {
		for i, v := range ch {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("channel %d index %d: non-finite value %v", c, i, v)
			}
		}
	}
}

// RequireBounded fails t if any sample of sig is non-finite or has a
// magnitude above limit.
func RequireBounded(t *testing.T, sig audio.Signal, limit float64) {
	t.Helper()

	RequireFinite(t, sig)

	for c, ch := range sig.Channels {
		for i, v := range ch {
			if math.Abs(v) > limit {
				t.Fatalf("channel %d index %d: |%v| > %v", c, i, v, limit)
			}
		}
	}
}

// MaxAbsDiff returns the largest sample difference between a and b over
// all channels. The signals must have the same shape.
func MaxAbsDiff(a, b audio.Signal) (float64, error) {
	if a.NumChannels() != b.NumChannels() {
		return 0, fmt.Errorf("channel mismatch: %d vs %d", a.NumChannels(), b.NumChannels())
	}

	maxDiff := 0.0

	for c := range a.Channels {
		x, y := a.Channels[c], b.Channels[c]
		if len(x) != len(y) {
			return 0, fmt.Errorf("channel %d length mismatch: %d vs %d", c, len(x), len(y))
		}

		for i := range x {
			maxDiff = max(maxDiff, math.Abs(x[i]-y[i]))
		}
	}

	return maxDiff, nil
}

// firstMismatch scans the common prefix of got and want. ok is false when a
// pair differs by more than eps.
func firstMismatch(got, want []float64, eps float64) (index int, diff float64, ok bool) {
	for i := range min(len(got), len(want)) {
		d := math.Abs(got[i] - want[i])
		if d > eps || math.IsNaN(d) {
			return i, d, false
		}
	}

	return 0, 0, true
}
