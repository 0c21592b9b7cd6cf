// Package audio provides the multi-channel sample container shared by the
// stretch, mix and resample packages.
//
// A Signal stores one []float64 per channel (planar layout) together with its
// sample rate. All channels of a valid Signal have the same length. Samples are
// nominally in [-1, 1]; that range is not enforced on construction.
package audio
