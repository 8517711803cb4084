package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	require.Equal(t, 5.0, Mean([]int{2, 4, 4, 4, 5, 5, 7, 9}))
	require.Equal(t, 0.0, Mean([]float64{}))
	require.Equal(t, 0.5, Mean([]float32{0.25, 0.75}))
}

func TestMedian(t *testing.T) {
	samples := []int{9, 1, 5, 3}
	require.Equal(t, 5, Median(samples))
	require.Equal(t, []int{9, 1, 5, 3}, samples)
	require.Equal(t, 3, Median([]int{3}))
	require.Equal(t, 0, Median([]int{}))
}
