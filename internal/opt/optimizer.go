package opt

import (
	"fmt"

	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

// Optimizer defines an optimization algorithm interface
type Optimizer interface {
	// Run executes the optimization
	// eval: objective function to minimize
	// lower, upper: parameter bounds
	// dim: dimensionality of parameter space
	// Returns: best parameters and best cost, or an error when the
	// back-end could not run at all
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64, error)
}

// Settings carries what any back-end may need; each uses its own subset.
type Settings struct {
	ZOO     zoo.Config
	PopSize int
	Seed    int64
}

// Names lists the available back-ends.
func Names() []string {
	return []string{"zoo", "mayfly"}
}

// New returns the back-end registered under name.
func New(name string, s Settings) (Optimizer, error) {
	switch name {
	case "zoo":
		return NewZOO(s.ZOO, s.Seed), nil
	case "mayfly":
		return NewMayfly(s.ZOO.MaxIterations, s.PopSize, s.Seed), nil
	default:
		return nil, fmt.Errorf("unknown optimizer: %s", name)
	}
}
