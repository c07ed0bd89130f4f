package aco

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsched/internal/sequence"
)

// stubRand возвращает фиксированные значения и считает вызовы Intn.
type stubRand struct {
	f        float64
	i        int
	intCalls int
}

func (s *stubRand) Float64() float64 { return s.f }
func (s *stubRand) Intn(n int) int {
	s.intCalls++
	return s.i % n
}

func line(n int) []sequence.Feature {
	fs := make([]sequence.Feature, n)
	for i := range fs {
		fs[i] = sequence.Feature{X: float64(i)}
	}
	return fs
}

func TestSelectNextPrefersClosest(t *testing.T) {
	dist := sequence.DistanceMatrix(line(4))
	field := NewField(4, 1.0)
	weights := make([]float64, 3)

	// веса кандидатов 1,2,3 из точки 0 при beta=2: 1, 1/4, 1/9
	rnd := &stubRand{f: 0.5}
	idx := selectNext(0, []int{1, 2, 3}, field, dist, 1, 2, rnd, weights)
	assert.Equal(t, 0, idx)
	assert.Zero(t, rnd.intCalls)

	rnd = &stubRand{f: 0.99}
	idx = selectNext(0, []int{1, 2, 3}, field, dist, 1, 2, rnd, weights)
	assert.Equal(t, 2, idx)
}

func TestSelectNextUniformFallback(t *testing.T) {
	dist := sequence.DistanceMatrix(line(4))
	// Пол феромона в степени 30 уходит в ноль.
	field := NewField(4, 1.0).Evaporate(0.999999999999)
	for i := 0; i < 5; i++ {
		field = field.Evaporate(0.999999999999)
	}
	require.Equal(t, pheromoneFloor, field.At(0, 1))

	rnd := &stubRand{i: 2}
	idx := selectNext(0, []int{1, 2, 3}, field, dist, 30, 1, rnd, make([]float64, 3))
	assert.Equal(t, 2, idx)
	assert.Equal(t, 1, rnd.intCalls)
}

func TestSelectNextCoincidentPoints(t *testing.T) {
	fs := []sequence.Feature{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 5, Y: 5}}
	dist := sequence.DistanceMatrix(fs)
	rnd := rand.New(rand.NewSource(1))
	idx := selectNext(0, []int{1, 2}, NewField(3, 1), dist, 1, 2, rnd, make([]float64, 2))
	assert.Contains(t, []int{0, 1}, idx)
}

// (1/1e-10)^40 переполняет float64: совпадающая точка должна победить, а не
// уступить равномерному выбору.
func TestSelectNextOverflowPicksCoincident(t *testing.T) {
	fs := []sequence.Feature{{X: 1, Y: 1}, {X: 5, Y: 5}, {X: 1, Y: 1}, {X: 9, Y: 9}}
	dist := sequence.DistanceMatrix(fs)
	for _, i := range []int{0, 1, 2} {
		rnd := &stubRand{f: 0.1, i: i}
		idx := selectNext(0, []int{1, 2, 3}, NewField(4, 1), dist, 1, 40, rnd, make([]float64, 3))
		assert.Equal(t, 1, idx, "draw %d", i)
	}
}

// Конечные веса, сумма которых переполняется, нормируются на максимальный.
func TestSelectOverflowNormalises(t *testing.T) {
	weights := []float64{1e308, 1e308, 1e300}
	rnd := &stubRand{f: 0.75}
	assert.Equal(t, 1, selectOverflow(weights, rnd))
	assert.Zero(t, rnd.intCalls)
	assert.InDelta(t, 1.0, weights[0], 1e-12)
	assert.InDelta(t, 1e-8, weights[2], 1e-20)
}

func TestSelectOverflowAmongInfinite(t *testing.T) {
	inf := math.Inf(1)
	rnd := &stubRand{i: 1}
	assert.Equal(t, 3, selectOverflow([]float64{1, inf, 5, inf}, rnd))
	assert.Equal(t, 1, rnd.intCalls)
}

func TestConstructTourIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 2; n <= 40; n += 7 {
		fs := sequence.RandomFeatures(n, 100, 0, rng)
		dist := sequence.DistanceMatrix(fs)
		field := NewField(n, 1)
		start := rng.Intn(n)

		tour := constructTour(start, n, field, dist, 1, 2, rng)
		require.NoError(t, sequence.ValidatePermutation(tour, n))
		assert.Equal(t, start, tour[0])
	}
}

func TestFastPow(t *testing.T) {
	assert.Equal(t, 1.0, fastPow(3, 0))
	assert.Equal(t, 3.0, fastPow(3, 1))
	assert.Equal(t, 9.0, fastPow(3, 2))
	assert.InDelta(t, 27.0, fastPow(3, 3), 1e-12)
}
