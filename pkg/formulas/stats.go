package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// SqrtTimeScale scales a one-period quantity to a horizon of the given number
// of periods under the square-root-of-time rule. The rule assumes independent
// increments and is an approximation, not an exact law.
func SqrtTimeScale(onePeriod float64, periods int) float64 {
	if periods <= 0 {
		return 0
	}
	return onePeriod * math.Sqrt(float64(periods))
}
