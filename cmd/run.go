package main

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/adaptivezoo/internal/bench"
	"github.com/cwbudde/adaptivezoo/internal/opt"
	"github.com/cwbudde/adaptivezoo/internal/store"
	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run single-shot optimization",
	Long: `Minimizes a benchmark objective once and prints the final value and a
summary of the trajectory. With --save the run record and its per-iteration
trace are written under --data-dir.`,
	RunE: runOptimization,
}

func init() {
	addOptimizerFlags(runCmd)
	runCmd.Flags().String("optimizer", "zoo", "Optimizer back-end (zoo, mayfly)")
	runCmd.Flags().String("data-dir", "./data", "Base directory for saved runs")
	runCmd.Flags().Bool("save", false, "Persist the run record and trace")
	rootCmd.AddCommand(runCmd)
}

type runOptions struct {
	Objective string
	Optimizer string
	Config    zoo.Config
	Seed      int64
	PopSize   int
	DataDir   string
	Save      bool
}

func runOptionsFromFlags() runOptions {
	return runOptions{
		Objective: viper.GetString("objective"),
		Optimizer: viper.GetString("optimizer"),
		Config:    zooConfigFromFlags(),
		Seed:      viper.GetInt64("seed"),
		PopSize:   viper.GetInt("pop"),
		DataDir:   viper.GetString("data-dir"),
		Save:      viper.GetBool("save"),
	}
}

func runOptimization(cmd *cobra.Command, args []string) error {
	return executeRun(runOptionsFromFlags(), cmd.OutOrStdout())
}

func executeRun(opts runOptions, out io.Writer) error {
	b, err := bench.Lookup(opts.Objective)
	if err != nil {
		return err
	}

	slog.Info("Starting optimization",
		"objective", b.Name,
		"optimizer", opts.Optimizer,
		"dim", opts.Config.OriginalDimension,
		"reduced", opts.Config.ReducedDimension,
		"iters", opts.Config.MaxIterations,
	)

	var (
		record *store.RunRecord
		trace  []store.TraceEntry
	)
	start := time.Now()

	switch opts.Optimizer {
	case "zoo":
		record, trace, err = runZOO(b, opts)
	case "mayfly":
		record, err = runMayfly(b, opts)
	default:
		return fmt.Errorf("unknown optimizer: %s (available: %v)", opts.Optimizer, opt.Names())
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	slog.Info("Optimization complete",
		"elapsed", elapsed,
		"initial_value", record.InitialValue,
		"final_value", record.FinalValue,
		"iterations", record.Iterations,
	)

	printRunSummary(out, record, elapsed)

	if opts.Save {
		if err := saveRun(opts.DataDir, record, trace); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved run %s to %s\n", record.ID, opts.DataDir)
	}
	return nil
}

// runZOO steps the optimizer directly so every iteration lands in the trace.
func runZOO(b bench.Benchmark, opts runOptions) (*store.RunRecord, []store.TraceEntry, error) {
	optimizer, err := zoo.New(b.Func, opts.Config, rand.New(rand.NewSource(opts.Seed)))
	if err != nil {
		return nil, nil, err
	}

	snap := optimizer.State()
	trace := []store.TraceEntry{traceEntry(snap)}
	for {
		ok, err := optimizer.Step()
		if err != nil {
			return nil, nil, fmt.Errorf("optimization failed at iteration %d: %w", optimizer.Iteration(), err)
		}
		if !ok {
			break
		}
		snap = optimizer.State()
		trace = append(trace, traceEntry(snap))
	}

	return store.NewRunRecord("", b.Name, "zoo", opts.Config, opts.Seed, snap), trace, nil
}

func traceEntry(s zoo.State) store.TraceEntry {
	last := len(s.ConvergenceHistory) - 1
	return store.TraceEntry{
		Iteration:    s.Iteration,
		Objective:    s.ConvergenceHistory[last],
		GradientNorm: s.GradientNorms[last],
		StepSize:     s.StepSize,
		Timestamp:    time.Now(),
	}
}

// runMayfly reports only the best point, so its history is a single value.
func runMayfly(b bench.Benchmark, opts runOptions) (*store.RunRecord, error) {
	dim := opts.Config.OriginalDimension
	if dim < 1 {
		return nil, fmt.Errorf("dim must be positive, got %d", dim)
	}
	lower, upper := b.Bounds(dim)

	best, cost, err := opt.NewMayfly(opts.Config.MaxIterations, opts.PopSize, opts.Seed).Run(b.Func, lower, upper, dim)
	if err != nil {
		return nil, err
	}

	state := zoo.State{
		ConvergenceHistory: []float64{cost},
		Iteration:          opts.Config.MaxIterations,
		X:                  best,
	}
	return store.NewRunRecord("", b.Name, "mayfly", opts.Config, opts.Seed, state), nil
}

func printRunSummary(out io.Writer, r *store.RunRecord, elapsed time.Duration) {
	fmt.Fprintf(out, "%s on %s (d=%d, reduced=%d, seed=%d)\n",
		r.Optimizer, r.Benchmark, r.Config.OriginalDimension, r.Config.ReducedDimension, r.Seed)

	if r.Optimizer == "zoo" {
		s := bench.Summarize(zoo.State{
			ConvergenceHistory: r.History,
			GradientNorms:      r.GradientNorms,
			Iteration:          r.Iterations,
		})
		fmt.Fprintf(out, "  Initial value: %.6g\n", s.InitialValue)
		fmt.Fprintf(out, "  Best value:    %.6g (iteration %d)\n", s.BestValue, s.BestIteration)
		fmt.Fprintf(out, "  Improvement:   %.6g (%.1f%%)\n", s.Improvement, s.ImprovementPercent)
		fmt.Fprintf(out, "  Avg |g|:       %.6g\n", s.AvgGradientNorm)
	}
	fmt.Fprintf(out, "  Final value:   %.6g after %d iterations in %s\n",
		r.FinalValue, r.Iterations, elapsed.Round(time.Millisecond))
}

func saveRun(dataDir string, record *store.RunRecord, trace []store.TraceEntry) error {
	runStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}
	if err := runStore.SaveRun(record); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	if len(trace) == 0 {
		return nil
	}

	tw, err := runStore.OpenTrace(record.ID)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	for _, e := range trace {
		if err := tw.Write(e); err != nil {
			tw.Close()
			return fmt.Errorf("failed to write trace: %w", err)
		}
	}
	return tw.Close()
}
