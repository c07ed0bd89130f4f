package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImprovementPct(t *testing.T) {
	assert.InDelta(t, 25.0, ImprovementPct(40, 30), 1e-12)
	assert.Equal(t, 0.0, ImprovementPct(0, 0))
	assert.InDelta(t, -50.0, ImprovementPct(10, 15), 1e-12)
}
