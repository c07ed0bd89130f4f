package sequence

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func square() []Feature {
	return []Feature{
		{ID: "a", X: 0, Y: 0, Tool: "T1"},
		{ID: "b", X: 10, Y: 0, Tool: "T1"},
		{ID: "c", X: 10, Y: 10, Tool: "T2"},
		{ID: "d", X: 0, Y: 10},
	}
}

func TestDistanceMatrix(t *testing.T) {
	d := DistanceMatrix(square())

	assert.True(t, math.IsInf(d.At(0, 0), 1))
	assert.InDelta(t, 10.0, d.At(0, 1), 1e-12)
	assert.InDelta(t, math.Sqrt(200), d.At(0, 2), 1e-12)
	assert.Equal(t, d.At(2, 3), d.At(3, 2))
}

func TestDistanceMatrixUsesZ(t *testing.T) {
	fs := []Feature{{X: 0, Y: 0}, {X: 3, Y: 0, Z: ptr(4)}}
	assert.InDelta(t, 5.0, DistanceMatrix(fs).At(0, 1), 1e-12)
}

func TestToolChangeMatrix(t *testing.T) {
	tc := ToolChangeMatrix(square(), 15)

	assert.Equal(t, 0.0, tc.At(0, 1), "same tool")
	assert.Equal(t, 15.0, tc.At(1, 2), "different tools")
	assert.Equal(t, 0.0, tc.At(2, 3), "unset tool never pays")
	assert.Equal(t, 0.0, tc.At(2, 2))
}

func TestPathCost(t *testing.T) {
	m, err := NewCostModel(square(), 15)
	require.NoError(t, err)

	seq := []int{0, 1, 2, 3}
	first := m.PathCost(seq)
	assert.InDelta(t, 30.0+15.0, first, 1e-12)
	assert.Equal(t, first, m.PathCost(seq), "path cost is pure")
	assert.InDelta(t, 30.0, m.DistanceCost(seq), 1e-12)
	assert.Equal(t, 1, CountToolChanges(square(), seq))
	assert.Equal(t, 0.0, m.PathCost([]int{2}))
}

func TestPathCostPureOnRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	fs := RandomFeatures(25, 100, 3, rng)
	m, err := NewCostModel(fs, 5)
	require.NoError(t, err)

	seq := Identity(len(fs))
	rng.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
	want := m.PathCost(seq)
	for i := 0; i < 5; i++ {
		assert.Equal(t, want, m.PathCost(seq))
	}
}

func TestNewCostModelValidation(t *testing.T) {
	_, err := NewCostModel(nil, 1)
	assert.ErrorIs(t, err, ErrNoFeatures)

	_, err = NewCostModel([]Feature{{X: math.NaN()}}, 1)
	assert.Error(t, err)

	_, err = NewCostModel(square(), -1)
	assert.Error(t, err)
}

func TestValidatePermutation(t *testing.T) {
	assert.NoError(t, ValidatePermutation([]int{2, 0, 1}, 3))
	assert.Error(t, ValidatePermutation([]int{0, 1}, 3))
	assert.Error(t, ValidatePermutation([]int{0, 0, 1}, 3))
	assert.Error(t, ValidatePermutation([]int{0, 1, 3}, 3))
}

func TestFeatureLabel(t *testing.T) {
	assert.Equal(t, "id", Feature{ID: "id", Name: "n"}.Label(4))
	assert.Equal(t, "n", Feature{Name: "n"}.Label(4))
	assert.Equal(t, "4", Feature{}.Label(4))
}

func TestRandomFeaturesDeterministic(t *testing.T) {
	a := RandomFeatures(10, 50, 2, rand.New(rand.NewSource(9)))
	b := RandomFeatures(10, 50, 2, rand.New(rand.NewSource(9)))
	assert.Equal(t, a, b)
	for _, f := range a {
		assert.GreaterOrEqual(t, f.X, 0.0)
		assert.Less(t, f.X, 50.0)
		assert.NotEmpty(t, f.Tool)
	}
}
