package flowshop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatorMakespan(t *testing.T) {
	// 2 jobs x 3 machines
	inst, err := NewInstance(2, 3, []float64{
		3, 2, 4,
		1, 5, 1,
	})
	require.NoError(t, err)
	eval, err := NewEvaluator(inst)
	require.NoError(t, err)

	// job0 then job1: M1 3,4; M2 5,10; M3 9,11
	ms, err := eval.Makespan([]int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 11.0, ms)

	// job1 then job0: M1 1,4; M2 6,8; M3 7,12
	assert.Equal(t, 12.0, eval.MustMakespan([]int{1, 0}))

	_, err = eval.Makespan([]int{0, 0})
	assert.Error(t, err)
}

func TestInstanceValidate(t *testing.T) {
	_, err := NewInstance(0, 2, nil)
	assert.Error(t, err)
	_, err = NewInstance(1, 2, []float64{1})
	assert.Error(t, err)
	_, err = NewInstance(1, 2, []float64{1, -1})
	assert.Error(t, err)
	var nilInst *Instance
	assert.Error(t, nilInst.Validate())
}

func TestEvaluatorTimeline(t *testing.T) {
	inst, err := NewInstance(2, 3, []float64{
		3, 2, 4,
		1, 5, 1,
	})
	require.NoError(t, err)
	eval, err := NewEvaluator(inst)
	require.NoError(t, err)

	slots, ms, err := eval.Timeline([]int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 11.0, ms)
	assert.Equal(t, []Slot{
		{Job: 0, Machine: 0, Start: 0, End: 3},
		{Job: 0, Machine: 1, Start: 3, End: 5},
		{Job: 0, Machine: 2, Start: 5, End: 9},
		{Job: 1, Machine: 0, Start: 3, End: 4},
		{Job: 1, Machine: 1, Start: 5, End: 10},
		{Job: 1, Machine: 2, Start: 10, End: 11},
	}, slots)
	assert.Equal(t, "M3", MachineName(2))
}
