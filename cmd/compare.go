package main

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/adaptivezoo/internal/bench"
	"github.com/cwbudde/adaptivezoo/internal/opt"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare optimizer back-ends on one benchmark",
	Long: `Runs each listed back-end concurrently on the same objective, dimension
and seed, and prints the best value each one reached.`,
	RunE: runCompare,
}

func init() {
	addOptimizerFlags(compareCmd)
	compareCmd.Flags().StringSlice("optimizers", opt.Names(), "Back-ends to compare")
	rootCmd.AddCommand(compareCmd)
}

type compareResult struct {
	Optimizer string
	Value     float64
	Evals     int64
	Elapsed   time.Duration
}

func runCompare(cmd *cobra.Command, args []string) error {
	settings := opt.Settings{
		ZOO:     zooConfigFromFlags(),
		PopSize: viper.GetInt("pop"),
		Seed:    viper.GetInt64("seed"),
	}
	results, err := compareOptimizers(viper.GetString("objective"), viper.GetStringSlice("optimizers"), settings)
	if err != nil {
		return err
	}
	printComparison(cmd.OutOrStdout(), results)
	return nil
}

// compareOptimizers runs every back-end in its own goroutine. Each builds its
// own random source from the shared seed, so results do not depend on scheduling.
func compareOptimizers(objective string, names []string, settings opt.Settings) ([]compareResult, error) {
	b, err := bench.Lookup(objective)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no optimizers to compare")
	}

	dim := settings.ZOO.OriginalDimension
	if dim < 1 {
		return nil, fmt.Errorf("dim must be positive, got %d", dim)
	}
	if err := settings.ZOO.Validate(); err != nil {
		return nil, err
	}

	optimizers := make([]opt.Optimizer, len(names))
	for i, name := range names {
		o, err := opt.New(name, settings)
		if err != nil {
			return nil, err
		}
		optimizers[i] = o
	}

	lower, upper := b.Bounds(dim)
	results := make([]compareResult, len(names))

	var g errgroup.Group
	for i := range optimizers {
		g.Go(func() error {
			var evals atomic.Int64
			eval := func(x []float64) float64 {
				evals.Add(1)
				return b.Func(x)
			}

			start := time.Now()
			_, value, err := optimizers[i].Run(eval, lower, upper, dim)
			if err != nil {
				return fmt.Errorf("%s failed: %w", names[i], err)
			}
			results[i] = compareResult{
				Optimizer: names[i],
				Value:     value,
				Evals:     evals.Load(),
				Elapsed:   time.Since(start),
			}
			slog.Info("Back-end finished", "optimizer", names[i], "value", value, "evals", evals.Load())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Value < results[j].Value })
	return results, nil
}

func printComparison(out io.Writer, results []compareResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tOPTIMIZER\tBEST VALUE\tEVALS\tELAPSED")
	fmt.Fprintln(w, "----\t---------\t----------\t-----\t-------")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%.6g\t%d\t%s\n", i+1, r.Optimizer, r.Value, r.Evals, r.Elapsed.Round(time.Millisecond))
	}
	w.Flush()
}
