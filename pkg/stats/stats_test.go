package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-9)
}

func TestPercentile(t *testing.T) {
	assert.Zero(t, Percentile(nil, 50))

	values := []float64{5, 1, 4, 2, 3}
	assert.Equal(t, 3.0, Percentile(values, 50))
	assert.Equal(t, 5.0, Percentile(values, 100))
	assert.Equal(t, 1.0, Percentile(values, 0))
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, values, "input must not be reordered")
}

func TestInts(t *testing.T) {
	assert.Equal(t, []float64{1, 2}, Ints([]int{1, 2}))
}
