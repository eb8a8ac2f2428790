// Package stats provides statistical helpers for analyzer summaries.
package stats

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Percentile returns the p-th percentile (0-100) of values using the
// empirical distribution. values need not be sorted. Returns 0 if empty.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	p = min(max(p, 0), 100)
	return stat.Quantile(p/100, stat.Empirical, sorted, nil)
}

// Ints converts integer samples for use with the float helpers.
func Ints(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
