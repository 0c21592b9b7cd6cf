package mix

import "errors"

// ErrInvalidGain indicates a NaN or infinite background gain.
var ErrInvalidGain = errors.New("mix: invalid background gain")
