// Package smoothing averages values around a located peak.
package smoothing

// DefaultHalfWidth gives a three point window.
const DefaultHalfWidth = 1

// WindowMean returns the arithmetic mean of values[index-halfWidth :
// index+halfWidth+1], with both ends clamped to the slice. The window never
// wraps. ok is false, and the mean zero, when found is false or index lies
// outside values.
func WindowMean(index int, found bool, values []float64, halfWidth int) (mean float64, ok bool) {
	if !found || index < 0 || index >= len(values) {
		return 0, false
	}
	if halfWidth < 0 {
		halfWidth = 0
	}

	lo := index - halfWidth
	if lo < 0 {
		lo = 0
	}
	hi := index + halfWidth
	if hi > len(values)-1 {
		hi = len(values) - 1
	}

	sum := 0.0
	for _, v := range values[lo : hi+1] {
		sum += v
	}
	return sum / float64(hi-lo+1), true
}
