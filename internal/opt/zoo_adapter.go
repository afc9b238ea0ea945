package opt

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

// ZOOAdapter runs the projected zeroth-order optimizer behind the Optimizer interface
type ZOOAdapter struct {
	config zoo.Config
	seed   int64
}

// NewZOO creates a new adaptive ZOO optimizer adapter
func NewZOO(config zoo.Config, seed int64) Optimizer {
	return &ZOOAdapter{
		config: config,
		seed:   seed,
	}
}

// Run executes the projected optimization and returns the best point on the trajectory.
// The search starts from a Gaussian draw, so bounds are not used. A numerical
// instability ends the run early but keeps the best point already evaluated.
func (z *ZOOAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64, error) {
	config := z.config
	config.OriginalDimension = dim
	if config.ReducedDimension > dim {
		config.ReducedDimension = dim
	}

	optimizer, err := zoo.New(eval, config, rand.New(rand.NewSource(z.seed)))
	if err != nil {
		return nil, math.NaN(), fmt.Errorf("zoo: %w", err)
	}

	best, bestCost := optimizer.Current()
	for {
		ok, err := optimizer.Step()
		if err != nil {
			// Keep the best point reached before the instability
			slog.Warn("ZOO optimization stopped early", "iteration", optimizer.Iteration(), "error", err)
			break
		}
		if !ok {
			break
		}
		if x, cost := optimizer.Current(); cost < bestCost {
			best, bestCost = x, cost
		}
	}

	return best, bestCost, nil
}
