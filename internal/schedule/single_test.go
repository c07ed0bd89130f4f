package schedule

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsched/internal/rules"
	"opsched/internal/shop"
)

func due(v float64) *float64 { return &v }

func scenarioB() []shop.Job {
	return []shop.Job{
		{ID: "A", ProcessingTime: 3, DueDate: due(10)},
		{ID: "B", ProcessingTime: 1, DueDate: due(4)},
		{ID: "C", ProcessingTime: 5, DueDate: due(20)},
	}
}

func TestScenarioB(t *testing.T) {
	fifo, err := SingleMachine(scenarioB(), rules.FIFO)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, fifo.Sequence)
	// completions 3, 4, 9
	assert.InDelta(t, 16.0/3.0, fifo.AverageFlowTime, 1e-12)

	spt, err := SingleMachine(scenarioB(), rules.SPT)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, spt.Sequence)
	// completions 1, 4, 9
	assert.InDelta(t, 14.0/3.0, spt.AverageFlowTime, 1e-12)
	assert.Less(t, spt.AverageFlowTime, fifo.AverageFlowTime)

	assert.Equal(t, 9.0, spt.Makespan)
	assert.Zero(t, spt.TardyJobs)
	assert.Equal(t, 1.0, spt.Utilization)
}

func TestSingleMachineTiming(t *testing.T) {
	jobs := []shop.Job{
		{ID: "late", ProcessingTime: 4, ArrivalTime: 0, DueDate: due(3)},
		{ID: "gap", ProcessingTime: 2, ArrivalTime: 10},
	}
	res, err := SingleMachine(jobs, rules.FIFO)
	require.NoError(t, err)

	require.Len(t, res.Schedule, 2)
	assert.Equal(t, shop.ScheduleEntry{JobID: "late", StartTime: 0, EndTime: 4, Tardiness: 1, FlowTime: 4}, res.Schedule[0])
	assert.Equal(t, shop.ScheduleEntry{JobID: "gap", StartTime: 10, EndTime: 12, FlowTime: 2}, res.Schedule[1])
	assert.Equal(t, 12.0, res.Makespan)
	assert.Equal(t, 1, res.TardyJobs)
	assert.Equal(t, 1.0, res.TotalTardiness)
	assert.Equal(t, 1.0, res.MaxTardiness)
	assert.InDelta(t, 0.5, res.Utilization, 1e-12)
}

func TestSingleMachineNoJobs(t *testing.T) {
	_, err := SingleMachine(nil, rules.SPT)
	assert.ErrorIs(t, err, shop.ErrNoJobs)
}

// CR сортируется один раз при t=0. Динамическая оценка поставила бы C перед A
// в момент t=8, см. jobshop.
func TestSingleMachineCRIsStatic(t *testing.T) {
	jobs := []shop.Job{
		{ID: "A", ProcessingTime: 4, DueDate: due(10)},
		{ID: "B", ProcessingTime: 8, DueDate: due(12)},
		{ID: "C", ProcessingTime: 2, DueDate: due(8.5)},
	}
	res, err := SingleMachine(jobs, rules.CR)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, res.Sequence)

	slack, err := SingleMachine(jobs, rules.SLACK)
	require.NoError(t, err)
	cands := Candidates(jobs)
	rules.Sort(rules.SLACK, cands, 0)
	for i, c := range cands {
		assert.Equal(t, jobs[c.Index].ID, slack.Sequence[i])
	}
}

func randomJobs(rng *rand.Rand, n int) []shop.Job {
	jobs := make([]shop.Job, n)
	for i := range jobs {
		jobs[i] = shop.Job{
			ProcessingTime: float64(1 + rng.Intn(20)),
			DueDate:        due(float64(5 + rng.Intn(60))),
		}
	}
	return jobs
}

func TestSPTMinimizesFlowTimeAndEDDMaxTardiness(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	for trial := 0; trial < 50; trial++ {
		jobs := randomJobs(rng, 2+rng.Intn(9))
		cmp, err := CompareRules(jobs)
		require.NoError(t, err)
		require.Len(t, cmp.Rows, 6)

		spt, _ := cmp.Row(rules.SPT)
		edd, _ := cmp.Row(rules.EDD)
		for _, row := range cmp.Rows {
			assert.LessOrEqual(t, spt.AverageFlowTime, row.AverageFlowTime+1e-9, "trial %d rule %s", trial, row.Rule)
			assert.LessOrEqual(t, edd.MaxTardiness, row.MaxTardiness+1e-9, "trial %d rule %s", trial, row.Rule)
		}
	}
}
