package opt

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// minPopSize is the smallest population mayfly v0.1.0 accepts.
const minPopSize = 20

// defaultBound is used when a caller supplies no bounds.
const defaultBound = 5.0

// MayflyAdapter runs the population-based Mayfly algorithm as a baseline
// for the projected optimizer.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter
func NewMayfly(maxIters, popSize int, seed int64) Optimizer {
	if popSize < minPopSize {
		popSize = minPopSize
	}
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes the Mayfly optimization using the external library.
// Mayfly takes scalar bounds, so the loosest per-dimension bound is used.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64, error) {
	if dim < 1 {
		return nil, math.NaN(), fmt.Errorf("mayfly: dimension must be positive, got %d", dim)
	}
	if m.maxIters < 1 {
		return nil, math.NaN(), fmt.Errorf("mayfly: max iterations must be positive, got %d", m.maxIters)
	}
	lo, hi := scalarBounds(lower, upper)

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = eval
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = lo
	config.UpperBound = hi
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, math.NaN(), fmt.Errorf("mayfly: %w", err)
	}

	return result.GlobalBest.Position, result.GlobalBest.Cost, nil
}

func scalarBounds(lower, upper []float64) (float64, float64) {
	if len(lower) == 0 || len(upper) == 0 {
		return -defaultBound, defaultBound
	}
	lo, hi := lower[0], upper[0]
	for _, v := range lower[1:] {
		lo = min(lo, v)
	}
	for _, v := range upper[1:] {
		hi = max(hi, v)
	}
	return lo, hi
}
