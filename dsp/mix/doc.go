// Package mix overlays a background bed under a foreground signal.
//
// The background is resampled to the foreground rate when needed, fitted to
// the foreground length and channel layout, raised by a gain in dB and added.
// If the sum exceeds full scale the whole result is scaled down so its peak
// is exactly 1.
package mix
