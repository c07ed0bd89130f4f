// Package jobshop simulates multi-machine, multi-operation job shops with a
// next-event clock. At every decision point each idle machine picks its next
// operation with a dispatching rule evaluated at the current simulated time.
package jobshop

import (
	"context"
	"fmt"
	"math"

	"opsched/internal/rules"
	"opsched/internal/shop"
)

const DefaultMaxEvents = 100000

// DefaultMachine is used when neither a machine list nor any operation names one.
const DefaultMachine = "M1"

// Options bounds a simulation run.
type Options struct {
	// MaxEvents caps the number of clock advances. <= 0 means DefaultMaxEvents.
	MaxEvents int `json:"maxEvents"`
	// MaxTime stops the clock once it passes this time. 0 means no limit.
	MaxTime float64 `json:"maxTime"`
}

// Stop reasons reported in Result.Stopped.
const (
	StopMaxEvents = "max_events"
	StopMaxTime   = "max_time"
	StopStalled   = "stalled"
	StopContext   = "context"
)

type Result struct {
	Rule     rules.Rule           `json:"rule"`
	Machines []string             `json:"machines"`
	Schedule []shop.ScheduleEntry `json:"schedule"`
	Makespan float64              `json:"makespan"`

	CompletedOperations int  `json:"completedOperations"`
	TotalOperations     int  `json:"totalOperations"`
	Complete            bool `json:"complete"`

	// Utilization is busy time over makespan per machine.
	Utilization   map[string]float64 `json:"utilization"`
	JobCompletion map[string]float64 `json:"jobCompletion"`

	TotalTardiness  float64 `json:"totalTardiness"`
	TardyJobs       int     `json:"tardyJobs"`
	AverageFlowTime float64 `json:"averageFlowTime"`

	Events  int    `json:"events"`
	Stopped string `json:"stopped,omitempty"`
}

type jobState struct {
	job   shop.Job
	ops   []shop.Operation
	next  int
	ready float64
}

func (s *jobState) done() bool { return s.next >= len(s.ops) }

func (s *jobState) remainingWork() float64 {
	w := 0.0
	for _, op := range s.ops[s.next:] {
		w += op.ProcessingTime
	}
	return w
}

// Simulate runs the job shop. A job without operations becomes a single
// operation of ProcessingTime on the first machine. A nil machine list is
// derived from the operations in first-seen order.
//
// Operations bound to a machine missing from the list are never scheduled:
// the run ends with a partial result (Complete=false) instead of an error.
func Simulate(ctx context.Context, jobs []shop.Job, machines []string, rule rules.Rule, opts Options) (Result, error) {
	jobs, err := shop.ValidateJobs(jobs)
	if err != nil {
		return Result{}, err
	}
	machines, err = machineList(jobs, machines)
	if err != nil {
		return Result{}, err
	}
	maxEvents := opts.MaxEvents
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}

	states := make([]*jobState, len(jobs))
	res := Result{
		Rule:          rule,
		Machines:      machines,
		Utilization:   make(map[string]float64, len(machines)),
		JobCompletion: make(map[string]float64, len(jobs)),
	}
	for i, j := range jobs {
		ops := j.Operations
		if len(ops) == 0 {
			ops = []shop.Operation{{Machine: machines[0], ProcessingTime: j.ProcessingTime}}
		}
		states[i] = &jobState{job: j, ops: ops, ready: j.ArrivalTime}
		res.TotalOperations += len(ops)
	}

	free := make([]float64, len(machines))
	busy := make([]float64, len(machines))
	now := 0.0

	for {
		if err := ctx.Err(); err != nil {
			res.Stopped = StopContext
			finish(&res, states, busy)
			return res, err
		}
		if res.CompletedOperations == res.TotalOperations {
			break
		}
		if res.Events >= maxEvents {
			res.Stopped = StopMaxEvents
			break
		}
		if opts.MaxTime > 0 && now > opts.MaxTime {
			res.Stopped = StopMaxTime
			break
		}
		res.Events++

		// Dispatch until no idle machine can start anything at now; a
		// zero-length operation frees its job at the same instant.
		for progress := true; progress; {
			progress = false
			for mi, m := range machines {
				if free[mi] > now {
					continue
				}
				s := pick(states, m, rule, now)
				if s == nil {
					continue
				}
				run(&res, s, mi, m, now, free, busy)
				progress = true
			}
		}

		next := nextEvent(states, free, now)
		if math.IsInf(next, 1) {
			if res.CompletedOperations < res.TotalOperations {
				res.Stopped = StopStalled
			}
			break
		}
		now = next
	}

	finish(&res, states, busy)
	return res, nil
}

// pick returns the best eligible job whose next operation runs on machine m.
func pick(states []*jobState, m string, rule rules.Rule, now float64) *jobState {
	var (
		cands []rules.Candidate
		owner []*jobState
	)
	for i, s := range states {
		if s.done() || s.ready > now || s.ops[s.next].Machine != m {
			continue
		}
		remaining := s.remainingWork()
		cands = append(cands, rules.Candidate{
			Arrival:    s.job.ArrivalTime,
			Processing: s.ops[s.next].ProcessingTime,
			Due:        s.job.Due(),
			Remaining:  remaining,
			Priority:   s.job.Priority,
			Index:      i,
		})
		owner = append(owner, s)
	}
	best := rules.Best(rule, cands, now)
	if best < 0 {
		return nil
	}
	return owner[best]
}

func run(res *Result, s *jobState, mi int, m string, now float64, free, busy []float64) {
	op := s.ops[s.next]
	end := now + op.ProcessingTime
	entry := shop.ScheduleEntry{
		JobID:          s.job.ID,
		StartTime:      now,
		EndTime:        end,
		Machine:        m,
		OperationIndex: s.next,
	}

	free[mi] = end
	busy[mi] += op.ProcessingTime
	s.ready = end
	s.next++
	res.CompletedOperations++

	if s.done() {
		entry.Tardiness = s.job.Tardiness(end)
		entry.FlowTime = end - s.job.ArrivalTime
		res.JobCompletion[s.job.ID] = end
	}
	res.Schedule = append(res.Schedule, entry)
}

// nextEvent is the earliest machine-free or job-ready time after now.
func nextEvent(states []*jobState, free []float64, now float64) float64 {
	next := math.Inf(1)
	for _, f := range free {
		if f > now && f < next {
			next = f
		}
	}
	for _, s := range states {
		if !s.done() && s.ready > now && s.ready < next {
			next = s.ready
		}
	}
	return next
}

func finish(res *Result, states []*jobState, busy []float64) {
	for _, e := range res.Schedule {
		res.Makespan = math.Max(res.Makespan, e.EndTime)
	}
	for mi, m := range res.Machines {
		res.Utilization[m] = 0
		if res.Makespan > 0 {
			res.Utilization[m] = busy[mi] / res.Makespan
		}
	}

	finished := 0
	flow := 0.0
	for _, s := range states {
		if !s.done() {
			continue
		}
		end := res.JobCompletion[s.job.ID]
		t := s.job.Tardiness(end)
		res.TotalTardiness += t
		if t > 0 {
			res.TardyJobs++
		}
		flow += end - s.job.ArrivalTime
		finished++
	}
	if finished > 0 {
		res.AverageFlowTime = flow / float64(finished)
	}
	res.Complete = res.CompletedOperations == res.TotalOperations
}

func machineList(jobs []shop.Job, machines []string) ([]string, error) {
	if len(machines) > 0 {
		seen := make(map[string]bool, len(machines))
		out := make([]string, 0, len(machines))
		for i, m := range machines {
			if m == "" {
				return nil, fmt.Errorf("machines[%d]: empty machine name", i)
			}
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
		return out, nil
	}

	seen := map[string]bool{}
	var out []string
	for _, j := range jobs {
		for k, op := range j.Operations {
			if op.Machine == "" {
				return nil, fmt.Errorf("job %s: operations[%d] has no machine", j.ID, k)
			}
			if !seen[op.Machine] {
				seen[op.Machine] = true
				out = append(out, op.Machine)
			}
		}
	}
	if len(out) == 0 {
		out = []string{DefaultMachine}
	}
	return out, nil
}
