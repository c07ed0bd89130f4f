package aco

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsched/internal/sequence"
)

func newSolver(t *testing.T, cfg Config, seed int64) *Solver {
	t.Helper()
	s, err := New(cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return s
}

func squareCorners() []sequence.Feature {
	return []sequence.Feature{
		{ID: "p0", X: 0, Y: 0, Tool: "T1"},
		{ID: "p1", X: 10, Y: 0, Tool: "T1"},
		{ID: "p2", X: 10, Y: 10, Tool: "T1"},
		{ID: "p3", X: 0, Y: 10, Tool: "T1"},
	}
}

func TestNewRejectsNilRng(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestSolveReturnsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{2, 3, 5, 12, 30} {
		fs := sequence.RandomFeatures(n, 100, 3, rng)
		cfg := DefaultConfig()
		cfg.Iterations = 30
		s := newSolver(t, cfg, int64(n))

		res, err := s.Solve(context.Background(), fs)
		require.NoError(t, err)
		require.True(t, res.Success)
		require.NoError(t, sequence.ValidatePermutation(res.Sequence, n), "n=%d", n)
		assert.Len(t, res.FeatureIDs, n)

		m, err := sequence.NewCostModel(fs, cfg.ToolChangeTime)
		require.NoError(t, err)
		assert.InDelta(t, m.PathCost(res.Sequence), res.Cost, 1e-9)
		assert.Equal(t, sequence.CountToolChanges(fs, res.Sequence), res.ToolChanges)
	}
}

// Квадрат 10x10: оптимальный открытый путь - три стороны (30), замкнутый
// обход даёт периметр 40.
func TestSolveSquareFromEveryCorner(t *testing.T) {
	fs := squareCorners()
	for start := 0; start < 4; start++ {
		cfg := DefaultConfig()
		cfg.Iterations = 200
		cfg.ToolChangeTime = 15
		cfg.StartNode = &start
		s := newSolver(t, cfg, int64(100+start))

		res, err := s.Solve(context.Background(), fs)
		require.NoError(t, err)
		require.NoError(t, sequence.ValidatePermutation(res.Sequence, 4))
		assert.Equal(t, start, res.Sequence[0])
		assert.InDelta(t, 30.0, res.Cost, 1e-9, "start=%d seq=%v", start, res.Sequence)
		assert.Zero(t, res.ToolChanges)

		closing := sequence.DistanceMatrix(fs).At(res.Sequence[3], res.Sequence[0])
		assert.InDelta(t, 40.0, res.Cost+closing, 1e-9, "closing the path gives the perimeter")
	}
}

func TestSolveGroupsToolsWhenPenaltyDominates(t *testing.T) {
	// Инструменты чередуются вдоль линии: без штрафа лучший путь идёт по порядку,
	// со штрафом выгоднее сгруппировать одинаковые инструменты.
	fs := []sequence.Feature{
		{X: 0, Tool: "A"}, {X: 1, Tool: "B"}, {X: 2, Tool: "A"},
		{X: 3, Tool: "B"}, {X: 4, Tool: "A"}, {X: 5, Tool: "B"},
	}
	cfg := DefaultConfig()
	cfg.Iterations = 300
	cfg.StagnationLimit = 0
	cfg.ToolChangeTime = 100
	s := newSolver(t, cfg, 11)

	res, err := s.Solve(context.Background(), fs)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ToolChanges)
	assert.Less(t, res.Cost, res.BaselineCost)
	assert.Greater(t, res.Improvement, 0.0)
}

func TestSolveTrivialInputs(t *testing.T) {
	s := newSolver(t, DefaultConfig(), 1)

	res, err := s.Solve(context.Background(), []sequence.Feature{{ID: "only", X: 3, Y: 4}})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []int{0}, res.Sequence)
	assert.Equal(t, []string{"only"}, res.FeatureIDs)
	assert.Zero(t, res.Cost)
	assert.True(t, res.Converged)
	assert.Zero(t, res.Iterations)

	_, err = s.Solve(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoFeatures)
}

func TestSolveCapacityExceeded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFeatures = 10
	s := newSolver(t, cfg, 1)

	fs := sequence.RandomFeatures(11, 10, 0, rand.New(rand.NewSource(1)))
	res, err := s.Solve(context.Background(), fs)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "превышает лимит 10")
	assert.Empty(t, res.Sequence)
}

func TestSolveStartNodeOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	start := 4
	cfg.StartNode = &start
	s := newSolver(t, cfg, 1)
	_, err := s.Solve(context.Background(), squareCorners())
	assert.Error(t, err)
}

func TestSolveIsReproducibleAcrossWorkers(t *testing.T) {
	fs := sequence.RandomFeatures(25, 100, 4, rand.New(rand.NewSource(5)))
	cfg := DefaultConfig()
	cfg.Iterations = 25

	seq := newSolver(t, cfg, 99)
	a, err := seq.Solve(context.Background(), fs)
	require.NoError(t, err)

	cfg.Workers = 4
	par := newSolver(t, cfg, 99)
	b, err := par.Solve(context.Background(), fs)
	require.NoError(t, err)

	assert.Equal(t, a.Sequence, b.Sequence)
	assert.Equal(t, a.Cost, b.Cost)
	assert.Equal(t, a.Iterations, b.Iterations)
}

func TestSolveStopsOnStagnation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 1000
	cfg.StagnationLimit = 5
	s := newSolver(t, cfg, 3)

	res, err := s.Solve(context.Background(), squareCorners())
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, res.Iterations, res.ConvergenceIteration)
	assert.Less(t, res.Iterations, 1000)
	assert.GreaterOrEqual(t, res.Iterations, 6)
	assert.Equal(t, res.Iterations*cfg.NumAnts, res.Evaluations)
}

func TestSolveWithoutEarlyStopRunsAllIterations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 17
	cfg.StagnationLimit = 0
	s := newSolver(t, cfg, 3)

	res, err := s.Solve(context.Background(), squareCorners())
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 17, res.Iterations)
}

func TestSolveHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newSolver(t, DefaultConfig(), 1)
	res, err := s.Solve(ctx, squareCorners())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "context", res.Meta["stopped"])
	assert.NoError(t, sequence.ValidatePermutation(res.Sequence, 4))
}

func TestSolveTimeLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 1_000_000
	cfg.StagnationLimit = 0
	cfg.TimeLimit = 20 * time.Millisecond
	s := newSolver(t, cfg, 1)

	fs := sequence.RandomFeatures(30, 100, 0, rand.New(rand.NewSource(2)))
	res, err := s.Solve(context.Background(), fs)
	require.NoError(t, err)
	assert.Equal(t, "time_limit", res.Meta["stopped"])
	assert.Less(t, res.Iterations, cfg.Iterations)
	assert.NoError(t, sequence.ValidatePermutation(res.Sequence, 30))
}
