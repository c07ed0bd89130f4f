package flowshop

import (
	"errors"
	"fmt"
	"math"
)

// Instance is a permutation flow shop: every job visits machines 0..Machines-1
// in order.
type Instance struct {
	Jobs     int
	Machines int
	// ProcTimes length must be Jobs*Machines.
	ProcTimes []float64
}

func NewInstance(jobs, machines int, procTimes []float64) (*Instance, error) {
	inst := &Instance{Jobs: jobs, Machines: machines, ProcTimes: procTimes}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

func (inst *Instance) Validate() error {
	if inst == nil {
		return errors.New("instance is nil")
	}
	if inst.Jobs <= 0 {
		return fmt.Errorf("jobs must be > 0 (got %d)", inst.Jobs)
	}
	if inst.Machines <= 0 {
		return fmt.Errorf("machines must be > 0 (got %d)", inst.Machines)
	}
	if len(inst.ProcTimes) != inst.Jobs*inst.Machines {
		return fmt.Errorf("procTimes length must be jobs*machines=%d (got %d)", inst.Jobs*inst.Machines, len(inst.ProcTimes))
	}
	for i, v := range inst.ProcTimes {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("procTimes[%d] must be a finite value >= 0 (got %v)", i, v)
		}
	}
	return nil
}

func (inst *Instance) Time(job, machine int) float64 {
	return inst.ProcTimes[job*inst.Machines+machine]
}
