package stretch

import "math"

// WarpState is the mutable time-warp bookkeeping of one stretch run.
type WarpState struct {
	// ReadPos is the source read cursor in samples. It advances by one
	// half-window per analysed frame.
	ReadPos float64
	// Tick is the cross-fade position in [0, 1] between the previous and the
	// current spectrum. It equals exactly 1 right after an onset.
	Tick float64
	// OnsetCredit slows the tick advance after onsets.
	OnsetCredit float64
	// FetchNext reports whether the next iteration analyses a new frame.
	FetchNext bool
}

// NewWarpState returns the state at the start of a run.
func NewWarpState() WarpState {
	return WarpState{FetchNext: true}
}

// TickIncrement returns the per-iteration cross-fade advance for factor,
// capped at 1 so compression never runs faster than one frame per chunk.
func TickIncrement(factor float64) float64 {
	if factor <= 0 {
		return 1
	}

	return math.Min(1, 1/factor)
}

// Snap marks an onset: the cross-fade jumps to the new frame and one unit of
// credit is granted.
func (w *WarpState) Snap() {
	w.Tick = 1
	w.OnsetCredit++
}

// Advance moves the cross-fade position by inc, spending half of inc from
// the onset credit while any is left. When the position wraps past 1 the
// next iteration fetches a new frame.
func (w *WarpState) Advance(inc float64) {
	if w.OnsetCredit <= 0 {
		w.Tick += inc
	} else {
		pay := 0.5 * inc

		w.OnsetCredit -= pay
		if w.OnsetCredit < 0 {
			w.OnsetCredit = 0
		}

		w.Tick += inc - pay
	}

	if w.Tick >= 1 {
		w.Tick = math.Mod(w.Tick, 1)
		w.FetchNext = true
	}
}
