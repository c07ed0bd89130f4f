package sequence

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CostModel holds the pairwise travel and tool-change matrices for one call.
type CostModel struct {
	n int
	// Distance is the 3-D Euclidean distance; the diagonal is +Inf.
	Distance *mat.SymDense
	// ToolChange holds the penalty paid between two features with different tools.
	ToolChange *mat.SymDense
}

func NewCostModel(features []Feature, toolChangeTime float64) (*CostModel, error) {
	if err := ValidateFeatures(features); err != nil {
		return nil, err
	}
	if toolChangeTime < 0 || !finite(toolChangeTime) {
		return nil, fmt.Errorf("toolChangeTime must be a finite value >= 0 (got %v)", toolChangeTime)
	}
	return &CostModel{
		n:          len(features),
		Distance:   DistanceMatrix(features),
		ToolChange: ToolChangeMatrix(features, toolChangeTime),
	}, nil
}

// Size is the number of features the model was built for.
func (m *CostModel) Size() int { return m.n }

// DistanceMatrix builds the symmetric Euclidean distance matrix. A missing z
// counts as 0.
func DistanceMatrix(features []Feature) *mat.SymDense {
	n := len(features)
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		d.SetSym(i, i, math.Inf(1))
		for j := i + 1; j < n; j++ {
			dx := features[i].X - features[j].X
			dy := features[i].Y - features[j].Y
			dz := features[i].z() - features[j].z()
			d.SetSym(i, j, math.Sqrt(dx*dx+dy*dy+dz*dz))
		}
	}
	return d
}

// ToolChangeMatrix sets penalty for every pair whose tools are both set and differ.
func ToolChangeMatrix(features []Feature, penalty float64) *mat.SymDense {
	n := len(features)
	t := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if toolsDiffer(features[i], features[j]) {
				t.SetSym(i, j, penalty)
			}
		}
	}
	return t
}

func toolsDiffer(a, b Feature) bool {
	return a.Tool != "" && b.Tool != "" && a.Tool != b.Tool
}

// EdgeCost is the full cost of travelling from i to j.
func (m *CostModel) EdgeCost(i, j int) float64 {
	return m.Distance.At(i, j) + m.ToolChange.At(i, j)
}

// PathCost sums distances and tool-change penalties over consecutive pairs of
// an open path.
func (m *CostModel) PathCost(seq []int) float64 {
	cost := 0.0
	for i := 1; i < len(seq); i++ {
		cost += m.EdgeCost(seq[i-1], seq[i])
	}
	return cost
}

// DistanceCost is PathCost without tool-change penalties.
func (m *CostModel) DistanceCost(seq []int) float64 {
	cost := 0.0
	for i := 1; i < len(seq); i++ {
		cost += m.Distance.At(seq[i-1], seq[i])
	}
	return cost
}

// CountToolChanges counts consecutive pairs that need a tool swap. It works on
// the features rather than the matrix so a zero penalty still reports swaps.
func CountToolChanges(features []Feature, seq []int) int {
	changes := 0
	for i := 1; i < len(seq); i++ {
		if toolsDiffer(features[seq[i-1]], features[seq[i]]) {
			changes++
		}
	}
	return changes
}
