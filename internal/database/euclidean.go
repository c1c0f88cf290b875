package database

import "math"

// EuclideanDistance computes the Euclidean distance between two embedding
// vectors. Returns +Inf for mismatched or empty inputs so a malformed vector
// can never produce a match.
func EuclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return math.Sqrt(sum)
}
