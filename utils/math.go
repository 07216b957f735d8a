package utils

import "math"

// Float64AlmostEqual compares two float64s within the given epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}
