package sequence

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// DefaultMaxFeatures bounds the O(n²) cost matrices.
const DefaultMaxFeatures = 1000

var ErrNoFeatures = errors.New("features array is required and must not be empty")

// Feature is a single operation position with an optional required tool.
type Feature struct {
	ID   string   `json:"id,omitempty" yaml:"id"`
	Name string   `json:"name,omitempty" yaml:"name"`
	X    float64  `json:"x" yaml:"x"`
	Y    float64  `json:"y" yaml:"y"`
	Z    *float64 `json:"z,omitempty" yaml:"z"`
	Tool string   `json:"tool,omitempty" yaml:"tool"`
}

func (f Feature) z() float64 {
	if f.Z == nil {
		return 0
	}
	return *f.Z
}

// Label returns the id, the name, or the positional index, in that order.
func (f Feature) Label(idx int) string {
	switch {
	case f.ID != "":
		return f.ID
	case f.Name != "":
		return f.Name
	default:
		return fmt.Sprintf("%d", idx)
	}
}

func ValidateFeatures(features []Feature) error {
	if len(features) == 0 {
		return ErrNoFeatures
	}
	for i, f := range features {
		if !finite(f.X) || !finite(f.Y) || !finite(f.z()) {
			return fmt.Errorf("features[%d]: coordinates must be finite (got x=%v y=%v z=%v)", i, f.X, f.Y, f.z())
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// RandomFeatures generates n features on a size×size plane. A positive tools
// value assigns each feature one of tools tool ids.
func RandomFeatures(n int, size float64, tools int, rng *rand.Rand) []Feature {
	if rng == nil {
		panic("nil rng")
	}
	if n < 0 || size <= 0 {
		panic("invalid feature bounds")
	}
	out := make([]Feature, n)
	for i := range out {
		out[i] = Feature{
			ID: fmt.Sprintf("f%d", i),
			X:  rng.Float64() * size,
			Y:  rng.Float64() * size,
		}
		if tools > 0 {
			out[i].Tool = fmt.Sprintf("T%d", rng.Intn(tools)+1)
		}
	}
	return out
}
