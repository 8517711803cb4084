package eval

import (
	"strconv"
	"strings"

	"github.com/fmo-detect/fmoeval/pkg/results"
)

// Comparison of a frame's classification against the baseline
type Comparison int

const (
	ComparisonNone        Comparison = iota // No baseline for this sequence
	ComparisonSame                          // Neither better nor worse than the baseline
	ComparisonImprovement                   // Baseline got nothing right, and we got nothing wrong
	ComparisonRegression                    // Baseline got nothing wrong, and we got nothing right
	ComparisonBuffering                     // The detector has not produced output for this frame yet
)

func (c Comparison) String() string {
	switch c {
	case ComparisonNone:
		return "no baseline"
	case ComparisonSame:
		return "no change"
	case ComparisonImprovement:
		return "improvement"
	case ComparisonRegression:
		return "regression"
	case ComparisonBuffering:
		return "buffering"
	}
	return "??"
}

// EvalResult is the outcome of evaluating a single frame
type EvalResult struct {
	Counts     results.Counts
	Comparison Comparison

	// Best IoU of each detection, against any ground truth object, in detection order
	IOUDetections []float64

	// Best IoU of each ground truth object, against any detection
	IOUGroundTruth []float64
}

func (r *EvalResult) Clear() {
	r.Counts = results.Counts{}
	r.Comparison = ComparisonNone
	r.IOUDetections = r.IOUDetections[:0]
	r.IOUGroundTruth = r.IOUGroundTruth[:0]
}

// String produces text such as "2xFN FP (regression)"
func (r *EvalResult) String() string {
	parts := []string{}
	for _, ev := range results.SerializationOrder {
		n := r.Counts[ev]
		if n == 0 {
			continue
		}
		s := ev.String()
		if n > 1 {
			s = strconv.Itoa(n) + "x" + s
		}
		parts = append(parts, s)
	}
	parts = append(parts, "("+r.Comparison.String()+")")
	return strings.Join(parts, " ")
}
