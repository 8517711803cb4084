package eval

import "github.com/fmo-detect/fmoeval/pkg/results"

// PausePolicy selects the frames that deserve a closer look
type PausePolicy struct {
	OnFN          bool `json:"onFN"`
	OnFP          bool `json:"onFP"`
	OnRegression  bool `json:"onRegression"`
	OnImprovement bool `json:"onImprovement"`
}

func (p PausePolicy) Any() bool {
	return p.OnFN || p.OnFP || p.OnRegression || p.OnImprovement
}

func (p PausePolicy) ShouldPause(r *EvalResult) bool {
	if p.OnFN && r.Counts[results.EventFN] > 0 {
		return true
	}
	if p.OnFP && r.Counts[results.EventFP] > 0 {
		return true
	}
	if p.OnRegression && r.Comparison == ComparisonRegression {
		return true
	}
	if p.OnImprovement && r.Comparison == ComparisonImprovement {
		return true
	}
	return false
}
