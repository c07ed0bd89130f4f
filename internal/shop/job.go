package shop

import (
	"errors"
	"fmt"
	"math"
)

var ErrNoJobs = errors.New("jobs array is required and must not be empty")

// Operation is one routing step of a job in a job shop.
type Operation struct {
	Machine        string  `json:"machine" yaml:"machine"`
	ProcessingTime float64 `json:"processingTime" yaml:"processingTime"`
}

type Job struct {
	ID             string   `json:"id" yaml:"id"`
	ProcessingTime float64  `json:"processingTime" yaml:"processingTime"`
	ArrivalTime    float64  `json:"arrivalTime,omitempty" yaml:"arrivalTime"`
	DueDate        *float64 `json:"dueDate,omitempty" yaml:"dueDate"`
	RemainingTime  *float64 `json:"remainingTime,omitempty" yaml:"remainingTime"`
	Priority       int      `json:"priority,omitempty" yaml:"priority"`

	Machine1Time *float64 `json:"machine1Time,omitempty" yaml:"machine1Time"`
	Machine2Time *float64 `json:"machine2Time,omitempty" yaml:"machine2Time"`

	Operations []Operation `json:"operations,omitempty" yaml:"operations"`
}

// Due returns the due date, or +Inf when the job has none.
func (j Job) Due() float64 {
	if j.DueDate == nil {
		return math.Inf(1)
	}
	return *j.DueDate
}

// Remaining returns RemainingTime when set, otherwise fallback.
func (j Job) Remaining(fallback float64) float64 {
	if j.RemainingTime == nil {
		return fallback
	}
	return *j.RemainingTime
}

// Tardiness is max(0, completion-due); zero for jobs without a due date.
func (j Job) Tardiness(completion float64) float64 {
	if j.DueDate == nil {
		return 0
	}
	return math.Max(0, completion-*j.DueDate)
}

// ScheduleEntry is one timed execution of a job (or one of its operations).
type ScheduleEntry struct {
	JobID          string  `json:"jobId"`
	StartTime      float64 `json:"startTime"`
	EndTime        float64 `json:"endTime"`
	Tardiness      float64 `json:"tardiness,omitempty"`
	FlowTime       float64 `json:"flowTime,omitempty"`
	Machine        string  `json:"machine,omitempty"`
	OperationIndex int     `json:"operationIndex,omitempty"`
}

// ValidateJobs checks the fields every scheduling mode relies on. Blank ids
// are filled with "J<index+1>" in the returned copy.
func ValidateJobs(jobs []Job) ([]Job, error) {
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}
	out := make([]Job, len(jobs))
	seen := make(map[string]bool, len(jobs))
	for i, j := range jobs {
		if j.ID == "" {
			j.ID = fmt.Sprintf("J%d", i+1)
		}
		if seen[j.ID] {
			return nil, fmt.Errorf("jobs[%d]: duplicate id %q", i, j.ID)
		}
		seen[j.ID] = true
		if !nonNegative(j.ProcessingTime) {
			return nil, fmt.Errorf("job %s: processingTime must be a finite value >= 0 (got %v)", j.ID, j.ProcessingTime)
		}
		if !nonNegative(j.ArrivalTime) {
			return nil, fmt.Errorf("job %s: arrivalTime must be a finite value >= 0 (got %v)", j.ID, j.ArrivalTime)
		}
		if j.DueDate != nil && (math.IsNaN(*j.DueDate) || math.IsInf(*j.DueDate, 0)) {
			return nil, fmt.Errorf("job %s: dueDate must be finite", j.ID)
		}
		if j.RemainingTime != nil && !nonNegative(*j.RemainingTime) {
			return nil, fmt.Errorf("job %s: remainingTime must be a finite value >= 0", j.ID)
		}
		for k, op := range j.Operations {
			if !nonNegative(op.ProcessingTime) {
				return nil, fmt.Errorf("job %s: operations[%d].processingTime must be a finite value >= 0", j.ID, k)
			}
		}
		out[i] = j
	}
	return out, nil
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}
