package audio

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		sig     Signal
		wantErr error
	}{
		{name: "mono", sig: Mono(44100, make([]float64, 10))},
		{name: "stereo", sig: Stereo(48000, make([]float64, 4), make([]float64, 4))},
		{name: "no channels", sig: Signal{SampleRate: 44100}, wantErr: ErrNoChannels},
		{name: "zero rate", sig: Mono(0, make([]float64, 1)), wantErr: ErrInvalidSampleRate},
		{name: "NaN rate", sig: Mono(math.NaN(), make([]float64, 1)), wantErr: ErrInvalidSampleRate},
		{
			name:    "ragged",
			sig:     Stereo(44100, make([]float64, 4), make([]float64, 3)),
			wantErr: ErrRaggedChannels,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sig.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}

				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestToChannels(t *testing.T) {
	stereo := Stereo(44100, []float64{1, 0.5}, []float64{0, -0.5})

	mono, err := stereo.ToChannels(1)
	if err != nil {
		t.Fatalf("ToChannels(1) error = %v", err)
	}

	if mono.NumChannels() != 1 {
		t.Fatalf("channels = %d, want 1", mono.NumChannels())
	}

	if mono.Channels[0][0] != 0.5 || mono.Channels[0][1] != 0 {
		t.Fatalf("downmix = %v, want [0.5 0]", mono.Channels[0])
	}

	dup, err := Mono(44100, []float64{0.25, -0.25}).ToChannels(2)
	if err != nil {
		t.Fatalf("ToChannels(2) error = %v", err)
	}

	for c := range 2 {
		if dup.Channels[c][0] != 0.25 || dup.Channels[c][1] != -0.25 {
			t.Fatalf("channel %d = %v, want duplicate of mono", c, dup.Channels[c])
		}
	}

	dup.Channels[0][0] = 9
	if dup.Channels[1][0] == 9 {
		t.Fatal("duplicated channels share backing storage")
	}

	if _, err := stereo.ToChannels(0); !errors.Is(err, ErrInvalidChannelCount) {
		t.Fatalf("ToChannels(0) error = %v, want ErrInvalidChannelCount", err)
	}
}

func TestFit(t *testing.T) {
	s := Mono(8000, []float64{1, 2, 3})

	short := s.Fit(2)
	if short.Len() != 2 || short.Channels[0][1] != 2 {
		t.Fatalf("Fit(2) = %v", short.Channels[0])
	}

	long := s.Fit(5)
	if long.Len() != 5 || long.Channels[0][3] != 0 || long.Channels[0][4] != 0 {
		t.Fatalf("Fit(5) = %v", long.Channels[0])
	}

	long.Channels[0][0] = 7
	if s.Channels[0][0] != 1 {
		t.Fatal("Fit mutated the source signal")
	}
}

func TestPeakScaleRMS(t *testing.T) {
	s := Stereo(44100, []float64{0.5, -2}, []float64{1, 0})
	if got := s.Peak(); got != 2 {
		t.Fatalf("Peak() = %v, want 2", got)
	}

	s.Scale(0.5)

	if got := s.Peak(); got != 1 {
		t.Fatalf("Peak() after Scale = %v, want 1", got)
	}

	dc := Mono(10, []float64{0.5, 0.5, 0.5, 0.5})
	if got := dc.RMS(); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("RMS() = %v, want 0.5", got)
	}
}

func TestInterleaveRoundTrip(t *testing.T) {
	s := Stereo(48000, []float64{1, 2, 3}, []float64{-1, -2, -3})

	inter := s.Interleave()
	want := []float64{1, -1, 2, -2, 3, -3}

	for i := range want {
		if inter[i] != want[i] {
			t.Fatalf("Interleave()[%d] = %v, want %v", i, inter[i], want[i])
		}
	}

	back, err := Deinterleave(48000, 2, append(inter, 99))
	if err != nil {
		t.Fatalf("Deinterleave() error = %v", err)
	}

	if back.Len() != 3 || back.Channels[1][2] != -3 {
		t.Fatalf("Deinterleave() = %v", back.Channels)
	}
}

func TestDuration(t *testing.T) {
	s := Silence(44100, 2, 44100*3/2)
	if got := s.Duration(); got != 1500*time.Millisecond {
		t.Fatalf("Duration() = %v, want 1.5s", got)
	}
}
