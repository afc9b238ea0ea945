package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/adaptivezoo/internal/server"
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	serverURL := viper.GetString("server")
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		return listJobs(out, fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}
	jobID := args[0]
	return getJobStatus(out, fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID), jobID)
}

func listJobs(out io.Writer, url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var jobs []server.Job
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	fmt.Fprintf(out, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		cfg := job.Config.Config
		fmt.Fprintf(out, "Job ID: %s\n", job.ID)
		fmt.Fprintf(out, "  State: %s\n", job.State)
		fmt.Fprintf(out, "  Benchmark: %s (d=%d, reduced=%d)\n", job.Config.Benchmark, cfg.OriginalDimension, cfg.ReducedDimension)
		fmt.Fprintf(out, "  Progress: %d / %d\n", job.Snapshot.Iteration, cfg.MaxIterations)
		if job.Snapshot.Iteration > 0 {
			fmt.Fprintf(out, "  Value: %.6g -> %.6g\n", job.Summary.InitialValue, job.Summary.CurrentValue)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func getJobStatus(out io.Writer, url, jobID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status server.JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	cfg := status.Config.Config
	fmt.Fprintf(out, "Job: %s\n", status.ID)
	fmt.Fprintf(out, "State: %s\n", status.State)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Benchmark: %s\n", status.Config.Benchmark)
	fmt.Fprintf(out, "  Dimension: %d (reduced %d)\n", cfg.OriginalDimension, cfg.ReducedDimension)
	fmt.Fprintf(out, "  Delta: %g  Eta0: %g  Beta: %g\n", cfg.Delta, cfg.Eta0, cfg.Beta)
	fmt.Fprintf(out, "  Iterations: %d\n", cfg.MaxIterations)
	fmt.Fprintf(out, "  Seed: %d\n", status.Config.Seed)
	fmt.Fprintln(out)

	s := status.Summary
	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Iteration: %d / %d\n", status.Snapshot.Iteration, cfg.MaxIterations)
	fmt.Fprintf(out, "  Initial Value: %.6g\n", s.InitialValue)
	fmt.Fprintf(out, "  Current Value: %.6g\n", s.CurrentValue)
	fmt.Fprintf(out, "  Best Value: %.6g (iteration %d)\n", s.BestValue, s.BestIteration)
	fmt.Fprintf(out, "  Improvement: %.6g (%.1f%%)\n", s.Improvement, s.ImprovementPercent)
	fmt.Fprintf(out, "  Step Size: %.6g\n", s.StepSize)

	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if status.StepsPerSecond > 0 {
		fmt.Fprintf(out, "  Throughput: %.0f steps/sec\n", status.StepsPerSecond)
	}

	if status.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", status.Error)
	}

	return nil
}
