package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanFromMonths(t *testing.T) {
	assert.Equal(t, 252.0, SpanFromMonths(12))
	assert.Equal(t, 21.0, SpanFromMonths(1))
	assert.InDelta(t, 2.0/253.0, AlphaFromSpan(252), 1e-15)
}

func TestEWMAWeights(t *testing.T) {
	weights := EWMAWeights(3, 0.5)
	assert.Equal(t, []float64{0.25, 0.5, 1}, weights)
	assert.Nil(t, EWMAWeights(0, 0.5))
}

func TestEWMA(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		mean, std := EWMA(nil, 252)
		assert.Equal(t, 0.0, mean)
		assert.Equal(t, 0.0, std)
	})

	t.Run("single observation has zero deviation", func(t *testing.T) {
		mean, std := EWMA([]float64{42}, 252)
		assert.Equal(t, 42.0, mean)
		assert.Equal(t, 0.0, std)
	})

	t.Run("two observations with span 3", func(t *testing.T) {
		// alpha = 0.5, weights [0.5, 1]
		mean, std := EWMA([]float64{1, 2}, 3)
		assert.InDelta(t, 5.0/3.0, mean, 1e-12)
		assert.InDelta(t, math.Sqrt(0.5), std, 1e-12)
	})

	t.Run("constant series converges", func(t *testing.T) {
		values := make([]float64, 60)
		for i := range values {
			values[i] = 100000
		}
		mean, std := EWMA(values, 252)
		assert.InDelta(t, 100000, mean, 1e-6)
		assert.InDelta(t, 0, std, 1e-3)
	})

	t.Run("recent observations dominate", func(t *testing.T) {
		values := []float64{0, 0, 0, 0, 100}
		mean, _ := EWMA(values, 3)
		assert.Greater(t, mean, Mean(values))
	})
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 0.0, Percentile(nil, 0.99))
	assert.Equal(t, 7.0, Percentile([]float64{7}, 0.99))

	values := []float64{3, 1, 2}
	assert.InDelta(t, 2.97, Percentile(values, 0.99), 1e-12)
	assert.InDelta(t, 1.5, Percentile(values, 0.5), 1e-12)
	assert.Equal(t, []float64{3, 1, 2}, values, "input must not be reordered")

	hundred := make([]float64, 100)
	for i := range hundred {
		hundred[i] = float64(100 - i)
	}
	assert.InDelta(t, 99, Percentile(hundred, 0.99), 1e-9)
}

func TestRollingSum(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	sums := RollingSum(values, 2)
	require.Len(t, sums, 4)
	assert.InDeltaSlice(t, []float64{3, 5, 7, 9}, sums, 1e-12)

	assert.InDeltaSlice(t, values, RollingSum(values, 1), 1e-12)
	assert.InDeltaSlice(t, []float64{15}, RollingSum(values, 5), 1e-12)
	assert.Nil(t, RollingSum(values, 6))
	assert.Nil(t, RollingSum(values, 0))
}

func TestSqrtTimeScale(t *testing.T) {
	assert.InDelta(t, 100000*math.Sqrt(7), SqrtTimeScale(100000, 7), 1e-9)
	assert.Equal(t, 5.0, SqrtTimeScale(5, 1))
	assert.Equal(t, 0.0, SqrtTimeScale(5, 0))
}
