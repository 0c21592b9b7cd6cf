// Package stretch implements extreme time-stretching in the Paulstretch
// family.
//
// The transform analyses overlapping Hann-windowed frames, cross-fades the
// spectra of consecutive frames by a fractional warp position, rotates every
// bin by a random phase and resynthesises with 50% overlap-add. The source
// read cursor always advances by half a window per analysed frame; the
// stretch factor only controls how many output half-frames are produced per
// source frame. A coarse 32-band spectral profile detects onsets: when energy
// jumps by more than the onset sensitivity, the cross-fade snaps to the new
// frame and the warp lingers there for a while, so transients stay sharp
// while sustained content is smeared.
//
// Phase randomisation is unseeded by default, so two runs over the same
// input differ sample by sample. Use WithSeed for reproducible output.
//
// All state lives in a per-call value and Stretch never mutates its input, so
// independent calls may run concurrently.
package stretch
