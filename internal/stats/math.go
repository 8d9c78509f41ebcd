package stats

import (
	"math"
	"slices"
)

// Median finds the median of values without mutating them. Empty input yields 0.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	temp := slices.Clone(values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return temp[n/2]
	}
	return (temp[n/2-1] + temp[n/2]) / 2.0
}

// SafeDiv divides num by den, yielding 0 when den is zero or the result is not finite.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
