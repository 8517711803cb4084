package stats

import (
	"cmp"
	"slices"
)

type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type Float interface {
	~float32 | ~float64
}

// Returns the mean of the given samples.
// The mean of zero samples is zero.
func Mean[T Float | Integer](samples []T) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range samples {
		sum += float64(v)
	}
	return sum / float64(len(samples))
}

// Returns the upper median (element len/2 after sorting). Does not modify 'samples'.
func Median[T cmp.Ordered](samples []T) T {
	var zero T
	if len(samples) == 0 {
		return zero
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return sorted[len(sorted)/2]
}
