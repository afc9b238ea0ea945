package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

// addOptimizerFlags registers the flags shared by run and compare.
func addOptimizerFlags(cmd *cobra.Command) {
	d := zoo.DefaultConfig()
	f := cmd.Flags()
	f.String("objective", "rastrigin", "Benchmark objective (rastrigin, sphere, rosenbrock)")
	f.Int("dim", d.OriginalDimension, "Original dimension d")
	f.Int("reduced", d.ReducedDimension, "Reduced dimension of the random subspace")
	f.Float64("delta", d.Delta, "Finite-difference width")
	f.Float64("eta0", d.Eta0, "Initial step size")
	f.Float64("beta", d.Beta, "Step size decay factor in (0, 1)")
	f.Int("iters", d.MaxIterations, "Max iterations")
	f.Int64("seed", 42, "Random seed")
	f.Int("pop", 30, "Population size (mayfly)")
}

func zooConfigFromFlags() zoo.Config {
	return zoo.Config{
		OriginalDimension: viper.GetInt("dim"),
		ReducedDimension:  viper.GetInt("reduced"),
		Delta:             viper.GetFloat64("delta"),
		Eta0:              viper.GetFloat64("eta0"),
		Beta:              viper.GetFloat64("beta"),
		MaxIterations:     viper.GetInt("iters"),
	}
}
