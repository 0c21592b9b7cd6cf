// Package wav reads and writes RIFF/WAVE audio as audio.Signal values.
//
// Decoding accepts integer PCM at 8, 16, 24 and 32 bits and IEEE float at 32
// and 64 bits, including WAVE_FORMAT_EXTENSIBLE headers. Unknown chunks are
// skipped. Encoding writes 16-bit PCM or 32-bit float.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cwbudde/algo-stretch/dsp/audio"
)

const (
	tagPCM        = 1
	tagFloat      = 3
	tagExtensible = 0xFFFE
)

// Format selects the sample encoding written by Encode.
type Format int

const (
	// FormatPCM16 writes 16-bit signed integer samples.
	FormatPCM16 Format = iota
	// FormatFloat32 writes 32-bit IEEE float samples.
	FormatFloat32
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatPCM16:
		return "pcm16"
	case FormatFloat32:
		return "float32"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat maps "pcm16" or "float32" to a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "pcm16", "":
		return FormatPCM16, nil
	case "float32":
		return FormatFloat32, nil
	default:
		return FormatPCM16, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Header describes the fmt chunk of a decoded stream.
type Header struct {
	FormatTag     uint16
	Channels      int
	SampleRate    int
	BitsPerSample int
}

type fmtChunk struct {
	FormatTag     uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Decode reads a complete WAV stream.
func Decode(r io.Reader) (audio.Signal, error) {
	sig, _, err := DecodeHeader(r)
	return sig, err
}

// DecodeHeader reads a complete WAV stream and also returns its header.
func DecodeHeader(r io.Reader) (audio.Signal, Header, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return audio.Signal{}, Header{}, fmt.Errorf("wav: read: %w", err)
	}

	return decodeBytes(data)
}

func decodeBytes(data []byte) (audio.Signal, Header, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return audio.Signal{}, Header{}, ErrNotWAV
	}

	var (
		hdr     Header
		haveFmt bool
		payload []byte
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		pos += 8

		end := pos + size
		if size < 0 || end > len(data) {
			// Some writers leave a streaming placeholder size on data.
			if id != "data" || !haveFmt {
				return audio.Signal{}, Header{}, fmt.Errorf("%w: chunk %q", ErrTruncated, id)
			}

			end = len(data)
		}

		body := data[pos:end]

		switch id {
		case "fmt ":
			h, err := parseFmt(body)
			if err != nil {
				return audio.Signal{}, Header{}, err
			}

			hdr, haveFmt = h, true
		case "data":
			payload = body
		}

		if payload != nil && haveFmt {
			break
		}

		// Chunks are padded to an even size.
		pos = end + size%2
	}

	if !haveFmt || payload == nil {
		return audio.Signal{}, Header{}, fmt.Errorf("%w: missing fmt or data chunk", ErrTruncated)
	}

	sig, err := decodeSamples(hdr, payload)
	if err != nil {
		return audio.Signal{}, Header{}, err
	}

	return sig, hdr, nil
}

func parseFmt(body []byte) (Header, error) {
	var fc fmtChunk
	if len(body) < 16 {
		return Header{}, fmt.Errorf("%w: fmt chunk of %d bytes", ErrTruncated, len(body))
	}

	err := binary.Read(bytes.NewReader(body[:16]), binary.LittleEndian, &fc)
	if err != nil {
		return Header{}, fmt.Errorf("wav: fmt chunk: %w", err)
	}

	tag := fc.FormatTag
	if tag == tagExtensible {
		// cbSize(2) validBits(2) channelMask(4) then the sub-format GUID,
		// whose first two bytes carry the real tag.
		if len(body) < 26 {
			return Header{}, fmt.Errorf("%w: extensible fmt chunk", ErrTruncated)
		}

		tag = binary.LittleEndian.Uint16(body[24:26])
	}

	h := Header{
		FormatTag:     tag,
		Channels:      int(fc.Channels),
		SampleRate:    int(fc.SampleRate),
		BitsPerSample: int(fc.BitsPerSample),
	}

	if h.Channels < 1 || h.SampleRate < 1 {
		return Header{}, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, h.Channels, h.SampleRate)
	}

	switch {
	case tag == tagPCM && (h.BitsPerSample == 8 || h.BitsPerSample == 16 || h.BitsPerSample == 24 || h.BitsPerSample == 32):
	case tag == tagFloat && (h.BitsPerSample == 32 || h.BitsPerSample == 64):
	default:
		return Header{}, fmt.Errorf("%w: tag %d with %d bits", ErrUnsupportedFormat, tag, h.BitsPerSample)
	}

	return h, nil
}

func decodeSamples(h Header, payload []byte) (audio.Signal, error) {
	width := h.BitsPerSample / 8
	frameSize := width * h.Channels
	frames := len(payload) / frameSize
	sig := audio.Silence(float64(h.SampleRate), h.Channels, frames)

	for i := range frames {
		frame := payload[i*frameSize:]
		for c := range h.Channels {
			sig.Channels[c][i] = sampleAt(h, frame[c*width:])
		}
	}

	return sig, nil
}

func sampleAt(h Header, b []byte) float64 {
	if h.FormatTag == tagFloat {
		if h.BitsPerSample == 64 {
			return math.Float64frombits(binary.LittleEndian.Uint64(b))
		}

		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}

	switch h.BitsPerSample {
	case 8:
		return (float64(b[0]) - 128) / 128
	case 16:
		return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}

		return float64(v) / 8388608
	default:
		return float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648
	}
}

// Encode writes sig as a canonical 44-byte-header WAV stream. PCM samples
// are clipped to [-1, 1].
func Encode(w io.Writer, sig audio.Signal, f Format) error {
	err := sig.Validate()
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	var (
		tag  uint16
		bits int
	)

	switch f {
	case FormatPCM16:
		tag, bits = tagPCM, 16
	case FormatFloat32:
		tag, bits = tagFloat, 32
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}

	nch := sig.NumChannels()
	block := nch * bits / 8
	dataSize := sig.Len() * block
	rate := uint32(math.Round(sig.SampleRate))

	buf := make([]byte, 44+dataSize)
	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataSize))
	copy(buf[8:], "WAVEfmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], tag)
	binary.LittleEndian.PutUint16(buf[22:], uint16(nch))
	binary.LittleEndian.PutUint32(buf[24:], rate)
	binary.LittleEndian.PutUint32(buf[28:], rate*uint32(block))
	binary.LittleEndian.PutUint16(buf[32:], uint16(block))
	binary.LittleEndian.PutUint16(buf[34:], uint16(bits))
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataSize))

	out := buf[44:]
	for i, v := range sig.Interleave() {
		if f == FormatFloat32 {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
			continue
		}

		v = math.Max(-1, math.Min(1, v))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(math.Round(v*32767))))
	}

	_, err = w.Write(buf)
	if err != nil {
		return fmt.Errorf("wav: write: %w", err)
	}

	return nil
}

// Bytes encodes sig into memory.
func Bytes(sig audio.Signal, f Format) ([]byte, error) {
	var b bytes.Buffer

	err := Encode(&b, sig, f)
	if err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (audio.Signal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("wav: %w", err)
	}

	sig, _, err := decodeBytes(data)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("%s: %w", path, err)
	}

	return sig, nil
}

// WriteFile encodes sig to path, replacing any existing file.
func WriteFile(path string, sig audio.Signal, f Format) error {
	data, err := Bytes(sig, f)
	if err != nil {
		return err
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	return nil
}
