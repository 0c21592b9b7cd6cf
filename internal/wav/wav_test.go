package wav

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-stretch/dsp/audio"
)

// build assembles a RIFF stream from raw chunks.
func build(chunks ...[]byte) []byte {
	var body bytes.Buffer

	body.WriteString("WAVE")

	for _, c := range chunks {
		body.Write(c)
	}

	out := make([]byte, 8, 8+body.Len())
	copy(out, "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(body.Len()))

	return append(out, body.Bytes()...)
}

func chunk(id string, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload)+1)
	copy(out, id)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(payload)))
	out = append(out, payload...)

	if len(payload)%2 == 1 {
		out = append(out, 0)
	}

	return out
}

func fmtPayload(tag uint16, channels, rate, bits int) []byte {
	b := make([]byte, 16)
	block := channels * bits / 8
	binary.LittleEndian.PutUint16(b[0:], tag)
	binary.LittleEndian.PutUint16(b[2:], uint16(channels))
	binary.LittleEndian.PutUint32(b[4:], uint32(rate))
	binary.LittleEndian.PutUint32(b[8:], uint32(rate*block))
	binary.LittleEndian.PutUint16(b[12:], uint16(block))
	binary.LittleEndian.PutUint16(b[14:], uint16(bits))

	return b
}

func TestRoundTripPCM16(t *testing.T) {
	sig := audio.Stereo(22050, []float64{0, 0.5, -0.5, 1}, []float64{0.25, -1, 0.75, -0.25})

	data, err := Bytes(sig, FormatPCM16)
	require.NoError(t, err)
	assert.Len(t, data, 44+4*2*2)

	got, hdr, err := DecodeHeader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Header{FormatTag: tagPCM, Channels: 2, SampleRate: 22050, BitsPerSample: 16}, hdr)
	require.Equal(t, 2, got.NumChannels())
	assert.InDelta(t, 22050.0, got.SampleRate, 0)

	for c := range sig.Channels {
		for i, v := range sig.Channels[c] {
			assert.InDelta(t, v, got.Channels[c][i], 1.0/32767, "channel %d sample %d", c, i)
		}
	}
}

func TestRoundTripFloat32(t *testing.T) {
	sig := audio.Mono(48000, []float64{0.125, -0.625, 1.5, -2})

	data, err := Bytes(sig, FormatFloat32)
	require.NoError(t, err)

	got, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)

	// Float output is not clipped.
	assert.Equal(t, sig.Channels[0], got.Channels[0])
}

func TestEncodeClipsPCM(t *testing.T) {
	data, err := Bytes(audio.Mono(8000, []float64{2, -3}), FormatPCM16)
	require.NoError(t, err)

	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(data[44:])))
	assert.Equal(t, int16(-32767), int16(binary.LittleEndian.Uint16(data[46:])))
}

func TestDecodeIntegerWidths(t *testing.T) {
	tests := []struct {
		name string
		bits int
		data []byte
		want []float64
	}{
		{name: "8 bit", bits: 8, data: []byte{128, 255, 0}, want: []float64{0, 127.0 / 128, -1}},
		{name: "24 bit", bits: 24, data: []byte{0, 0, 0x40, 0, 0, 0xC0}, want: []float64{0.5, -0.5}},
		{
			name: "32 bit",
			bits: 32,
			data: binary.LittleEndian.AppendUint32(nil, 0x40000000),
			want: []float64{0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := build(chunk("fmt ", fmtPayload(tagPCM, 1, 8000, tt.bits)), chunk("data", tt.data))

			got, err := Decode(bytes.NewReader(raw))
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got.Channels[0], 1e-12)
		})
	}
}

func TestDecodeFloat64AndExtensible(t *testing.T) {
	payload := binary.LittleEndian.AppendUint64(nil, math.Float64bits(-0.375))

	ext := fmtPayload(tagExtensible, 1, 16000, 64)
	ext = binary.LittleEndian.AppendUint16(ext, 22)       // cbSize
	ext = binary.LittleEndian.AppendUint16(ext, 64)       // valid bits
	ext = binary.LittleEndian.AppendUint32(ext, 0x4)      // channel mask
	ext = binary.LittleEndian.AppendUint16(ext, tagFloat) // sub-format
	ext = append(ext, make([]byte, 14)...)

	raw := build(chunk("fmt ", ext), chunk("data", payload))

	got, hdr, err := DecodeHeader(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, uint16(tagFloat), hdr.FormatTag)
	assert.Equal(t, []float64{-0.375}, got.Channels[0])
}

func TestDecodeSkipsUnknownChunks(t *testing.T) {
	raw := build(
		chunk("LIST", []byte("odd")),
		chunk("fmt ", fmtPayload(tagPCM, 1, 8000, 16)),
		chunk("data", []byte{0x00, 0x40}),
	)

	got, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5}, got.Channels[0], 1e-12)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{name: "not riff", raw: []byte("OggS0000WAVE"), want: ErrNotWAV},
		{name: "empty", raw: nil, want: ErrNotWAV},
		{name: "no data", raw: build(chunk("fmt ", fmtPayload(tagPCM, 1, 8000, 16))), want: ErrTruncated},
		{name: "short fmt", raw: build(chunk("fmt ", []byte{1, 0})), want: ErrTruncated},
		{
			name: "adpcm",
			raw:  build(chunk("fmt ", fmtPayload(2, 1, 8000, 4)), chunk("data", []byte{0})),
			want: ErrUnsupportedFormat,
		},
		{
			name: "float16",
			raw:  build(chunk("fmt ", fmtPayload(tagFloat, 1, 8000, 16)), chunk("data", []byte{0, 0})),
			want: ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.raw))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	sig := audio.Mono(8000, []float64{0.1, 0.2, 0.3})

	require.NoError(t, WriteFile(path, sig, FormatFloat32))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.InDeltaSlice(t, sig.Channels[0], got.Channels[0], 1e-7)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{FormatPCM16, FormatFloat32} {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseFormat("mp3")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
