// Package search locates targets in ascending sequences.
package search

// Index bisects values, which must be ascending by key, for target.
//
// The bisection keeps low and high as inclusive bounds and narrows them with
// mid-1 and mid+1. An exact key match returns immediately. Otherwise the
// final low is returned, so the result is the lower-bound position in most
// cases but may sit one below it when high overshoots. Targets above every
// key resolve to the last index rather than len(values). ok is false only
// when values is empty.
func Index[T any](target float64, values []T, key func(T) float64) (i int, ok bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}

	low, high := 0, n-1
	for low < high {
		mid := (low + high) / 2
		v := key(values[mid])
		switch {
		case target < v:
			high = mid - 1
		case v < target:
			low = mid + 1
		default:
			return mid, true
		}
	}

	return clamp(low, n), true
}

// Floats is Index over a plain float64 slice.
func Floats(target float64, values []float64) (int, bool) {
	return Index(target, values, identity)
}

func identity(v float64) float64 { return v }

// clamp bounds i to [0, n-1].
func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
