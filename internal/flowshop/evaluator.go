package flowshop

import (
	"fmt"
	"math"

	"opsched/internal/sequence"
)

// Slot is one job on one machine in a permutation schedule.
type Slot struct {
	Job     int
	Machine int
	Start   float64
	End     float64
}

// MachineName returns the display name of machine m: M1, M2, ...
func MachineName(m int) string { return fmt.Sprintf("M%d", m+1) }

// Evaluator schedules permutations without idle insertion: each machine
// starts a job as soon as the job left the previous machine and the machine
// itself is free. It reuses an internal buffer and is not safe for
// concurrent use.
type Evaluator struct {
	inst *Instance
	free []float64
}

func NewEvaluator(inst *Instance) (*Evaluator, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{inst: inst, free: make([]float64, inst.Machines)}, nil
}

func (e *Evaluator) sweep(perm []int, visit func(Slot)) (float64, error) {
	if e == nil || e.inst == nil {
		return 0, fmt.Errorf("nil evaluator")
	}
	if err := sequence.ValidatePermutation(perm, e.inst.Jobs); err != nil {
		return 0, err
	}
	for m := range e.free {
		e.free[m] = 0
	}
	for _, job := range perm {
		left := 0.0
		for m := range e.free {
			start := math.Max(left, e.free[m])
			end := start + e.inst.Time(job, m)
			if visit != nil {
				visit(Slot{Job: job, Machine: m, Start: start, End: end})
			}
			e.free[m], left = end, end
		}
	}
	return e.free[len(e.free)-1], nil
}

func (e *Evaluator) Makespan(perm []int) (float64, error) {
	return e.sweep(perm, nil)
}

func (e *Evaluator) MustMakespan(perm []int) float64 {
	ms, err := e.Makespan(perm)
	if err != nil {
		panic(err)
	}
	return ms
}

// Timeline returns the slots of perm job by job, machines in order.
func (e *Evaluator) Timeline(perm []int) ([]Slot, float64, error) {
	var slots []Slot
	if e != nil && e.inst != nil {
		slots = make([]Slot, 0, len(perm)*e.inst.Machines)
	}
	ms, err := e.sweep(perm, func(s Slot) { slots = append(slots, s) })
	if err != nil {
		return nil, 0, err
	}
	return slots, ms, nil
}
