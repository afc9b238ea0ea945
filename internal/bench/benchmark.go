// Package bench names the benchmark objectives and derives display
// statistics from optimizer snapshots.
package bench

import (
	"fmt"
	"sort"

	"github.com/cwbudde/adaptivezoo/internal/numeric"
)

// Benchmark is a named objective with a conventional search domain.
type Benchmark struct {
	Name        string
	Description string
	Func        numeric.Objective
	Lower       float64
	Upper       float64
}

// Bounds expands the scalar search domain to dim coordinates.
func (b Benchmark) Bounds(dim int) (lower, upper []float64) {
	lower = make([]float64, dim)
	upper = make([]float64, dim)
	for i := 0; i < dim; i++ {
		lower[i] = b.Lower
		upper[i] = b.Upper
	}
	return lower, upper
}

var benchmarks = map[string]Benchmark{
	"rastrigin": {
		Name:        "rastrigin",
		Description: "Rastrigin (multimodal)",
		Func:        numeric.Rastrigin,
		Lower:       -5.12,
		Upper:       5.12,
	},
	"sphere": {
		Name:        "sphere",
		Description: "Sphere (convex)",
		Func:        numeric.Sphere,
		Lower:       -10,
		Upper:       10,
	},
	"rosenbrock": {
		Name:        "rosenbrock",
		Description: "Rosenbrock (valley)",
		Func:        numeric.Rosenbrock,
		Lower:       -5,
		Upper:       10,
	},
}

// UnknownBenchmarkError is returned by Lookup for names that are not registered.
type UnknownBenchmarkError struct {
	Name string
}

func (e *UnknownBenchmarkError) Error() string {
	return fmt.Sprintf("unknown benchmark %q (available: %v)", e.Name, Names())
}

// Lookup returns the benchmark registered under name.
func Lookup(name string) (Benchmark, error) {
	b, ok := benchmarks[name]
	if !ok {
		return Benchmark{}, &UnknownBenchmarkError{Name: name}
	}
	return b, nil
}

// Names returns the registered benchmark names in sorted order.
func Names() []string {
	names := make([]string, 0, len(benchmarks))
	for name := range benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
