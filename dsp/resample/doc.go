// Package resample provides rational sample-rate conversion using polyphase FIR
// filtering with Kaiser-windowed sinc anti-aliasing.
//
// Quality modes:
//   - QualityFast: lower CPU, lower attenuation
//   - QualityBalanced: default mode
//   - QualityBest: higher attenuation and flatter passband
//
// Default quality/performance matrix:
//
//	mode            taps/phase   nominal stopband
//	QualityFast     16           ~55 dB
//	QualityBalanced 32           ~75 dB
//	QualityBest     64           ~90 dB
//
// Resampler is a streaming single-channel converter that keeps its history
// between Process calls. Signal converts a whole multi-channel audio.Signal
// in one shot, removes the filter delay and returns exactly
// round(len*outRate/inRate) samples per channel.
package resample
