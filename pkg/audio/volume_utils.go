package audio

import "math"

// volumeToPower maps a 0..1 linear volume onto beep's base-2 exponent.
// Unity gain is 0; anything below the silence threshold is pinned low and
// the Silent flag takes over.
func volumeToPower(vol float64) float64 {
	if vol <= 0.01 {
		return -10
	}
	return math.Log2(vol)
}
