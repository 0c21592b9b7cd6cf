package wav

import "errors"

var (
	// ErrNotWAV indicates input without a RIFF/WAVE header.
	ErrNotWAV = errors.New("wav: not a RIFF/WAVE stream")
	// ErrUnsupportedFormat indicates an encoding this package cannot decode
	// or encode.
	ErrUnsupportedFormat = errors.New("wav: unsupported format")
	// ErrTruncated indicates a stream that ends inside a chunk or before the
	// fmt and data chunks were found.
	ErrTruncated = errors.New("wav: truncated stream")
)
