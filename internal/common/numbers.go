package common

import "math"

// UnknownStr is returned by String methods for out-of-range enum values.
const UnknownStr = "unknown"

// Clamp limits v to the closed interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round rounds v to the given number of decimal places.
// Rounding keeps scores stable across platforms and keeps equal inputs equal.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
