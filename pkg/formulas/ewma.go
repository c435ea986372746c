package formulas

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerMonth converts a lookback in months into an EWMA span in trading days
const TradingDaysPerMonth = 21

// SpanFromMonths returns the EWMA span (in trading days) for a lookback in months
func SpanFromMonths(months int) float64 {
	return float64(months * TradingDaysPerMonth)
}

// AlphaFromSpan returns the EWMA smoothing factor for a span: α = 2 / (span + 1)
func AlphaFromSpan(span float64) float64 {
	if span < 1 {
		span = 1
	}
	return 2.0 / (span + 1.0)
}

// EWMAWeights returns the observation weights of an adjusted EWMA evaluated at
// the last element of a series of length n. The newest observation weighs 1 and
// older ones decay geometrically by (1 - alpha) per step.
func EWMAWeights(n int, alpha float64) []float64 {
	if n <= 0 {
		return nil
	}
	weights := make([]float64, n)
	w := 1.0
	for i := n - 1; i >= 0; i-- {
		weights[i] = w
		w *= 1 - alpha
	}
	return weights
}

// EWMA calculates the exponentially weighted mean and standard deviation of a
// series, evaluated at its last observation.
//
// The mean is the adjusted (normalised) weighted average, so the first
// observation seeds the estimate. The standard deviation applies the
// reliability-weights bias correction:
//
//	var = Σw(x-μ)² / Σw × (Σw)² / ((Σw)² - Σw²)
//
// A single observation has no defined deviation and yields 0. An empty series
// yields (0, 0).
func EWMA(values []float64, span float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}

	weights := EWMAWeights(len(values), AlphaFromSpan(span))
	mean = stat.Mean(values, weights)

	sumW := floats.Sum(weights)
	sumW2 := floats.Dot(weights, weights)
	denominator := sumW*sumW - sumW2
	if denominator <= 0 {
		return mean, 0
	}

	variance := stat.PopVariance(values, weights) * sumW * sumW / denominator
	if variance <= 0 || math.IsNaN(variance) {
		return mean, 0
	}

	return mean, math.Sqrt(variance)
}
