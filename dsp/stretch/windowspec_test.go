package stretch

import (
	"errors"
	"math"
	"testing"
)

func TestWindowSize(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		rate    float64
		want    int
	}{
		{name: "default at 44.1k", seconds: 0.25, rate: 44100, want: 11024},
		{name: "default at 48k", seconds: 0.25, rate: 48000, want: 12000},
		{name: "odd rounds down", seconds: 0.001, rate: 17001, want: 16},
		{name: "floor of 16", seconds: 0.0001, rate: 8000, want: 16},
		{name: "odd above floor", seconds: 1, rate: 8193, want: 8192},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WindowSize(tt.seconds, tt.rate); got != tt.want {
				t.Fatalf("WindowSize(%v, %v) = %d, want %d", tt.seconds, tt.rate, got, tt.want)
			}
		})
	}
}

func TestNewWindowSpec(t *testing.T) {
	ws, err := NewWindowSpec(0.25, 44100)
	if err != nil {
		t.Fatal(err)
	}

	if ws.Size != 11024 || ws.Half != 5512 {
		t.Fatalf("size/half = %d/%d, want 11024/5512", ws.Size, ws.Half)
	}

	if len(ws.Window) != ws.Size || len(ws.InverseHalf) != ws.Half {
		t.Fatalf("lengths = %d/%d", len(ws.Window), len(ws.InverseHalf))
	}

	if ws.Window[0] != 0 || math.Abs(ws.Window[ws.Size-1]) > 1e-15 {
		t.Fatalf("window ends = %v, %v, want 0", ws.Window[0], ws.Window[ws.Size-1])
	}

	if ws.Bins() != ws.Half+1 {
		t.Fatalf("Bins() = %d, want %d", ws.Bins(), ws.Half+1)
	}

	if got := ws.Seconds(44100); math.Abs(got-11024.0/44100) > 1e-12 {
		t.Fatalf("Seconds() = %v", got)
	}
}

func TestInverseHalfWindow(t *testing.T) {
	h := (1 + math.Sqrt(0.5)) / 2
	inv := inverseHalfWindow(8)

	for i, v := range inv {
		want := 2 * (h - (1-h)*math.Cos(2*math.Pi*float64(i)/8)) / h
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("inv[%d] = %v, want %v", i, v, want)
		}
	}

	// Minimum at the frame start, maximum in the middle of the hop.
	if math.Abs(inv[0]-2*(2*h-1)/h) > 1e-12 {
		t.Fatalf("inv[0] = %v", inv[0])
	}

	if math.Abs(inv[4]-2/h) > 1e-12 {
		t.Fatalf("inv[4] = %v, want %v", inv[4], 2/h)
	}
}

func TestNewWindowSpecValidation(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		rate    float64
		want    error
	}{
		{name: "zero seconds", seconds: 0, rate: 44100, want: ErrInvalidWindow},
		{name: "negative seconds", seconds: -1, rate: 44100, want: ErrInvalidWindow},
		{name: "nan seconds", seconds: math.NaN(), rate: 44100, want: ErrInvalidWindow},
		{name: "zero rate", seconds: 0.25, rate: 0, want: ErrInvalidSampleRate},
		{name: "inf rate", seconds: 0.25, rate: math.Inf(1), want: ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWindowSpec(tt.seconds, tt.rate)
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewWindowSpec() error = %v, want %v", err, tt.want)
			}
		})
	}
}
