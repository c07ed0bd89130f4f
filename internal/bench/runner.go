package bench

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"opsched/internal/opt"
	"opsched/internal/sequence"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) (opt.Sequencer, error)
}

// Case is one benchmark instance: Features random positions on an
// Area x Area plate using Tools distinct tools.
type Case struct {
	Features     int
	Tools        int
	Area         float64
	InstanceSeed int64
}

type Record struct {
	RunID    string
	Algo     string
	Features int
	Tools    int
	Runs     int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	CostBest float64
	CostMean float64
	CostStd  float64

	// BaselineCost is the cost of the input order, identical across runs.
	BaselineCost    float64
	ImprovementMean float64
	ToolChangesMean float64
	IterationsMean  float64
	ConvergedRuns   int
}

type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
	// RunID tags every record of one invocation. Empty means a fresh uuid per RunCase.
	RunID string
}

func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	if r.Runs <= 0 {
		return Record{}, fmt.Errorf("runs must be > 0 (got %d)", r.Runs)
	}
	features := sequence.RandomFeatures(c.Features, c.Area, c.Tools, randForSeed(c.InstanceSeed))

	costs := make([]float64, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	improvements := make([]float64, 0, r.Runs)
	toolChanges := make([]float64, 0, r.Runs)
	iterations := make([]float64, 0, r.Runs)
	converged := 0
	baseline := 0.0

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + int64(i)

		op, err := algo.Factory(runSeed)
		if err != nil {
			return Record{}, fmt.Errorf("run %d: %w", i, err)
		}

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		res, err := op.Solve(runCtx, features)
		dur := time.Since(start)
		cancel()

		if err != nil && runCtx.Err() != nil {
			return Record{}, fmt.Errorf("run %d: cancelled/timeout: %w", i, err)
		}
		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}
		if !res.Success {
			return Record{}, fmt.Errorf("run %d: %s", i, res.Message)
		}
		if err := sequence.ValidatePermutation(res.Sequence, c.Features); err != nil {
			return Record{}, fmt.Errorf("run %d: %w", i, err)
		}

		baseline = res.BaselineCost
		costs = append(costs, res.Cost)
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
		improvements = append(improvements, res.Improvement)
		toolChanges = append(toolChanges, float64(res.ToolChanges))
		iterations = append(iterations, float64(res.Iterations))
		if res.Converged {
			converged++
		}
	}

	costStats := CalcStats(costs)
	tStats := CalcStats(timesMs)

	runID := r.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return Record{
		RunID:    runID,
		Algo:     algo.Name,
		Features: c.Features,
		Tools:    c.Tools,
		Runs:     r.Runs,

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		CostBest: costStats.Best,
		CostMean: costStats.Mean,
		CostStd:  costStats.Std,

		BaselineCost:    baseline,
		ImprovementMean: CalcStats(improvements).Mean,
		ToolChangesMean: CalcStats(toolChanges).Mean,
		IterationsMean:  CalcStats(iterations).Mean,
		ConvergedRuns:   converged,
	}, nil
}

func randForSeed(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
