package flowshop

import (
	"fmt"
	"sort"

	"opsched/internal/sequence"
	"opsched/internal/shop"
)

const (
	Machine1 = "M1"
	Machine2 = "M2"
)

// Result is a two-machine flow-shop schedule.
type Result struct {
	Sequence []string             `json:"sequence"`
	Schedule []shop.ScheduleEntry `json:"schedule"`
	Makespan float64              `json:"makespan"`
	// InputMakespan is the makespan of the jobs in the given order.
	InputMakespan float64 `json:"inputMakespan"`

	Machine1Idle float64            `json:"machine1Idle"`
	Machine2Idle float64            `json:"machine2Idle"`
	Utilization  map[string]float64 `json:"utilization"`

	// SetU holds jobs with machine1Time <= machine2Time, SetV the rest.
	SetU int `json:"setU"`
	SetV int `json:"setV"`
}

// InstanceFromJobs builds a two-machine instance from machine1Time and
// machine2Time. Both are required.
func InstanceFromJobs(jobs []shop.Job) (*Instance, error) {
	pt := make([]float64, 0, 2*len(jobs))
	for _, j := range jobs {
		if j.Machine1Time == nil || j.Machine2Time == nil {
			return nil, fmt.Errorf("job %s: machine1Time and machine2Time are required for the flow shop", j.ID)
		}
		pt = append(pt, *j.Machine1Time, *j.Machine2Time)
	}
	return NewInstance(len(jobs), 2, pt)
}

// JohnsonOrder returns Johnson's permutation for a two-machine instance:
// U = {m1 <= m2} by m1 ascending, then V = {m1 > m2} by m2 descending.
// Stable sorts keep the input order among equal keys.
func JohnsonOrder(inst *Instance) ([]int, int, error) {
	if err := inst.Validate(); err != nil {
		return nil, 0, err
	}
	if inst.Machines != 2 {
		return nil, 0, fmt.Errorf("johnson's rule needs exactly 2 machines (got %d)", inst.Machines)
	}

	var u, v []int
	for j := 0; j < inst.Jobs; j++ {
		if inst.Time(j, 0) <= inst.Time(j, 1) {
			u = append(u, j)
		} else {
			v = append(v, j)
		}
	}
	sort.SliceStable(u, func(a, b int) bool { return inst.Time(u[a], 0) < inst.Time(u[b], 0) })
	sort.SliceStable(v, func(a, b int) bool { return inst.Time(v[a], 1) > inst.Time(v[b], 1) })

	return append(u, v...), len(u), nil
}

// Johnson schedules jobs on two machines in series. Machine 2 starts a job
// only after machine 1 has finished it and machine 2 is free. All jobs are
// released at t=0; arrival times are not used.
func Johnson(jobs []shop.Job) (Result, error) {
	jobs, err := shop.ValidateJobs(jobs)
	if err != nil {
		return Result{}, err
	}
	inst, err := InstanceFromJobs(jobs)
	if err != nil {
		return Result{}, err
	}
	order, setU, err := JohnsonOrder(inst)
	if err != nil {
		return Result{}, err
	}

	eval, err := NewEvaluator(inst)
	if err != nil {
		return Result{}, err
	}
	inputMakespan, err := eval.Makespan(sequence.Identity(len(jobs)))
	if err != nil {
		return Result{}, err
	}
	slots, makespan, err := eval.Timeline(order)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Sequence:      make([]string, 0, len(order)),
		Schedule:      make([]shop.ScheduleEntry, 0, len(slots)),
		Makespan:      makespan,
		InputMakespan: inputMakespan,
		SetU:          setU,
		SetV:          len(order) - setU,
	}
	for _, idx := range order {
		res.Sequence = append(res.Sequence, jobs[idx].ID)
	}

	busy := make([]float64, inst.Machines)
	last := inst.Machines - 1
	for _, sl := range slots {
		j := jobs[sl.Job]
		e := shop.ScheduleEntry{
			JobID:          j.ID,
			StartTime:      sl.Start,
			EndTime:        sl.End,
			Machine:        MachineName(sl.Machine),
			OperationIndex: sl.Machine,
		}
		if sl.Machine == last {
			e.Tardiness = j.Tardiness(sl.End)
			e.FlowTime = sl.End
		}
		res.Schedule = append(res.Schedule, e)
		busy[sl.Machine] += sl.End - sl.Start
	}

	res.Machine1Idle = res.Makespan - busy[0]
	res.Machine2Idle = res.Makespan - busy[1]
	res.Utilization = map[string]float64{Machine1: 0, Machine2: 0}
	if res.Makespan > 0 {
		res.Utilization[Machine1] = busy[0] / res.Makespan
		res.Utilization[Machine2] = busy[1] / res.Makespan
	}
	return res, nil
}
