package report

import "github.com/fmo-detect/fmoeval/pkg/results"

// Stat is a quality measure derived from classification counts
type Stat int

const (
	StatPrecision Stat = iota
	StatRecall
	StatF05
	StatF10
	StatF20
	NumStats
)

var statNames = [NumStats]string{"precision", "recall", "F_0.5", "F_1.0", "F_2.0"}

// Stats that get their own column in the table. The rest are printed above the table.
var statInTable = [NumStats]bool{true, true, false, true, false}

func (s Stat) String() string {
	return statNames[s]
}

func (s Stat) Eval(c results.Counts) float64 {
	switch s {
	case StatPrecision:
		return Precision(c)
	case StatRecall:
		return Recall(c)
	case StatF05:
		return FScore(c, 0.5)
	case StatF10:
		return FScore(c, 1.0)
	case StatF20:
		return FScore(c, 2.0)
	}
	return 0
}

// Precision is TP / (TP + FP). It is 1 when there are no false positives, even if there are no true positives.
func Precision(c results.Counts) float64 {
	if c[results.EventFP] == 0 {
		return 1
	}
	return float64(c[results.EventTP]) / float64(c[results.EventTP]+c[results.EventFP])
}

// Recall is TP / (TP + FN). It is 1 when there are no false negatives.
func Recall(c results.Counts) float64 {
	if c[results.EventFN] == 0 {
		return 1
	}
	return float64(c[results.EventTP]) / float64(c[results.EventTP]+c[results.EventFN])
}

// FScore is the weighted harmonic mean of precision and recall
func FScore(c results.Counts, beta float64) float64 {
	p := Precision(c)
	r := Recall(c)
	if p <= 0 || r <= 0 {
		return 0
	}
	b2 := beta * beta
	return (b2 + 1) * p * r / (b2*p + r)
}

// Stats are the headline numbers of a report.
// The *Base values are those of the baseline, or equal to the current values
// when there is no baseline.
type Stats struct {
	Avg       [NumStats]float64 // Mean of the per-sequence values
	Total     [NumStats]float64 // Computed from the counts summed over all sequences
	IOU       float64
	AvgBase   [NumStats]float64
	TotalBase [NumStats]float64
	IOUBase   float64
}
