// Package schedule sequences jobs on a single machine and compares the
// dispatching rules against each other.
package schedule

import (
	"math"

	"opsched/internal/rules"
	"opsched/internal/shop"
)

// Result summarises one single-machine schedule.
type Result struct {
	Rule     rules.Rule           `json:"rule"`
	Sequence []string             `json:"sequence"`
	Schedule []shop.ScheduleEntry `json:"schedule"`

	Makespan         float64 `json:"makespan"`
	TotalFlowTime    float64 `json:"totalFlowTime"`
	AverageFlowTime  float64 `json:"averageFlowTime"`
	TotalTardiness   float64 `json:"totalTardiness"`
	AverageTardiness float64 `json:"averageTardiness"`
	MaxTardiness     float64 `json:"maxTardiness"`
	TardyJobs        int     `json:"tardyJobs"`
	// Utilization is busy time over makespan.
	Utilization float64 `json:"utilization"`
}

// Candidates builds the rule view of jobs for a single resource: the
// remaining work of a job is its whole processing time unless RemainingTime
// says otherwise.
func Candidates(jobs []shop.Job) []rules.Candidate {
	out := make([]rules.Candidate, len(jobs))
	for i, j := range jobs {
		out[i] = rules.Candidate{
			Arrival:    j.ArrivalTime,
			Processing: j.ProcessingTime,
			Due:        j.Due(),
			Remaining:  j.Remaining(j.ProcessingTime),
			Priority:   j.Priority,
			Index:      i,
		}
	}
	return out
}

// SingleMachine sorts the jobs once by rule and sweeps them in that fixed
// order. CR and SLACK are evaluated a single time at t=0 here; the job-shop
// simulator re-evaluates them at every decision point.
func SingleMachine(jobs []shop.Job, rule rules.Rule) (Result, error) {
	jobs, err := shop.ValidateJobs(jobs)
	if err != nil {
		return Result{}, err
	}

	cands := Candidates(jobs)
	rules.Sort(rule, cands, 0)

	res := Result{
		Rule:     rule,
		Sequence: make([]string, 0, len(jobs)),
		Schedule: make([]shop.ScheduleEntry, 0, len(jobs)),
	}

	available := 0.0
	busy := 0.0
	for _, c := range cands {
		j := jobs[c.Index]
		start := math.Max(available, j.ArrivalTime)
		end := start + j.ProcessingTime
		tardiness := j.Tardiness(end)
		flow := end - j.ArrivalTime

		res.Sequence = append(res.Sequence, j.ID)
		res.Schedule = append(res.Schedule, shop.ScheduleEntry{
			JobID:     j.ID,
			StartTime: start,
			EndTime:   end,
			Tardiness: tardiness,
			FlowTime:  flow,
		})

		available = end
		busy += j.ProcessingTime
		res.TotalFlowTime += flow
		res.TotalTardiness += tardiness
		res.MaxTardiness = math.Max(res.MaxTardiness, tardiness)
		if tardiness > 0 {
			res.TardyJobs++
		}
	}

	res.Makespan = available
	n := float64(len(jobs))
	res.AverageFlowTime = res.TotalFlowTime / n
	res.AverageTardiness = res.TotalTardiness / n
	if res.Makespan > 0 {
		res.Utilization = busy / res.Makespan
	}
	return res, nil
}
