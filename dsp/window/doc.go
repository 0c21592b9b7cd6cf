// Package window generates the symmetric tapering windows used for
// short-time spectral analysis, overlap-add resynthesis and FIR design.
//
// Only the raised-cosine family (Hann, Hamming, Blackman), Kaiser and the
// rectangular window are provided.
package window
