package formulas

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Percentile returns the p-quantile (0 <= p <= 1) of values.
//
// Interpolation is fixed to gonum's stat.LinInterp: the empirical CDF is
// linearly interpolated between order statistics at position p·n (R type 4).
// For sorted x of length n, with k the first 1-based rank where k >= p·n and
// t = k - p·n, the result is t·x[k-2] + (1-t)·x[k-1]; p·n <= 1 returns x[0].
//
// Returns 0 for an empty slice. The input is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}
