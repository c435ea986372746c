package formulas

import (
	"github.com/markcheno/go-talib"
)

// RollingSum returns the sums of every contiguous window of the given length.
// The result has len(values) - window + 1 elements, oldest window first.
// Returns nil when the window is not positive or longer than the series.
func RollingSum(values []float64, window int) []float64 {
	if window <= 0 || len(values) < window {
		return nil
	}

	// talib pads the first window-1 slots of its output
	sums := talib.Sum(values, window)
	out := make([]float64, len(values)-window+1)
	copy(out, sums[window-1:])
	return out
}
