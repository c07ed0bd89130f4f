package opt

import (
	"context"
	"time"

	"opsched/internal/sequence"
)

// Sequencer orders a set of features into an open visiting path.
type Sequencer interface {
	Solve(ctx context.Context, features []sequence.Feature) (Result, error)
}

// Result is the outcome of one sequencing call. Success=false with a Message
// marks an input the sequencer refused to work on (e.g. too many features).
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	Sequence   []int    `json:"sequence"`
	FeatureIDs []string `json:"featureIds,omitempty"`

	Cost         float64 `json:"cost"`
	BaselineCost float64 `json:"baselineCost"`
	// Improvement is the cost reduction relative to the baseline, in percent.
	Improvement float64 `json:"improvement"`
	ToolChanges int     `json:"toolChanges"`

	Iterations           int  `json:"iterations"`
	Converged            bool `json:"converged"`
	ConvergenceIteration int  `json:"convergenceIteration,omitempty"`
	Evaluations          int  `json:"evaluations"`

	Duration time.Duration  `json:"duration"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// ImprovementPct returns (baseline-cost)/baseline in percent, 0 for a zero baseline.
func ImprovementPct(baseline, cost float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return (baseline - cost) / baseline * 100
}
