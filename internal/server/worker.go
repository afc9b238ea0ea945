package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cwbudde/adaptivezoo/internal/bench"
	"github.com/cwbudde/adaptivezoo/internal/store"
	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

// runJob drives one optimizer to its iteration budget, publishing a snapshot
// after every step. Cancellation is observed between steps. If runStore is
// not nil, a completed job is persisted as a run record with its step trace.
func runJob(ctx context.Context, jm *JobManager, runStore store.Store, jobID string) error {
	defer jm.clearCancel(jobID)

	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	cfg := job.Config

	benchmark, err := bench.Lookup(cfg.Benchmark)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	optimizer, err := zoo.New(benchmark.Func, cfg.Config, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	snap := optimizer.State()
	summary := bench.Summarize(snap)
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
		j.Snapshot = snap
		j.Summary = summary
	})
	jm.broadcaster.Broadcast(newProgressEvent(jobID, StateRunning, snap, summary))
	currentObjective.WithLabelValues(jobID).Set(summary.CurrentValue)

	slog.Info("Starting job",
		"job_id", jobID,
		"benchmark", cfg.Benchmark,
		"dim", cfg.Config.OriginalDimension,
		"reduced", cfg.Config.ReducedDimension,
		"iterations", cfg.Config.MaxIterations,
		"initial_value", summary.CurrentValue,
	)

	var tick <-chan time.Time
	if cfg.IntervalMs > 0 {
		ticker := time.NewTicker(time.Duration(cfg.IntervalMs) * time.Millisecond)
		defer ticker.Stop()
		tick = ticker.C
	}

	plateau := bench.NewPlateauDetector(bench.DefaultPlateauConfig())
	plateau.Observe(summary.CurrentValue)

	trace := make([]store.TraceEntry, 0, min(cfg.Config.MaxIterations+1, 4096))
	trace = append(trace, store.TraceEntry{Iteration: 0, Objective: summary.CurrentValue, Timestamp: time.Now()})

	start := time.Now()
	for optimizer.Iteration() < cfg.Config.MaxIterations {
		if tick != nil {
			select {
			case <-ctx.Done():
				markJobCancelled(jm, jobID)
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			markJobCancelled(jm, jobID)
			return err
		}

		stepStart := time.Now()
		advanced, err := optimizer.Step()
		stepDuration.WithLabelValues(cfg.Benchmark).Observe(time.Since(stepStart).Seconds())
		if err != nil {
			markJobFailed(jm, jobID, err)
			return err
		}
		if !advanced {
			break
		}
		stepsTotal.WithLabelValues(cfg.Benchmark).Inc()

		snap = optimizer.State()
		summary = bench.Summarize(snap)
		jm.UpdateJob(jobID, func(j *Job) {
			j.Snapshot = snap
			j.Summary = summary
		})
		currentObjective.WithLabelValues(jobID).Set(summary.CurrentValue)
		jm.broadcaster.Broadcast(newProgressEvent(jobID, StateRunning, snap, summary))

		trace = append(trace, store.TraceEntry{
			Iteration:    snap.Iteration,
			Objective:    summary.CurrentValue,
			GradientNorm: summary.GradientNorm,
			StepSize:     snap.StepSize,
			Timestamp:    time.Now(),
		})

		if plateau.Observe(summary.CurrentValue) {
			at, _ := plateau.PlateauAt()
			slog.Debug("Objective plateaued", "job_id", jobID, "iteration", at, "best", plateau.Best())
		}
	}
	elapsed := time.Since(start)

	if runStore != nil {
		if err := persistRun(runStore, jobID, cfg, snap, trace); err != nil {
			slog.Error("Failed to persist run", "job_id", jobID, "error", err)
		}
	}

	recordJobEnd(jobID, StateCompleted)
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.EndTime = &endTime
	})
	jm.broadcaster.Broadcast(newProgressEvent(jobID, StateCompleted, snap, summary))

	plateauAt, plateaued := plateau.PlateauAt()
	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"initial_value", summary.InitialValue,
		"final_value", summary.CurrentValue,
		"best_value", summary.BestValue,
		"plateaued", plateaued,
		"plateau_iteration", plateauAt,
		"stale_steps", plateau.StaleCount(),
	)
	return nil
}

// persistRun saves the run record and writes its step trace.
func persistRun(runStore store.Store, jobID string, cfg JobConfig, snap zoo.State, trace []store.TraceEntry) error {
	record := store.NewRunRecord(jobID, cfg.Benchmark, "zoo", cfg.Config, cfg.Seed, snap)
	if err := runStore.SaveRun(record); err != nil {
		return err
	}

	tw, err := runStore.OpenTrace(jobID)
	if err != nil {
		return err
	}
	for _, entry := range trace {
		if err := tw.Write(entry); err != nil {
			tw.Close()
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}

	slog.Info("Run saved", "job_id", jobID, "entries", len(trace))
	return nil
}

// recordJobEnd counts the final state and drops the job's objective series.
func recordJobEnd(jobID string, state JobState) {
	jobsTotal.WithLabelValues(string(state)).Inc()
	currentObjective.DeleteLabelValues(jobID)
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	recordJobEnd(jobID, StateFailed)
	endTime := time.Now()
	var snap zoo.State
	var summary bench.Summary
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
		snap, summary = j.Snapshot, j.Summary
	})

	event := newProgressEvent(jobID, StateFailed, snap, summary)
	event.Error = err.Error()
	jm.broadcaster.Broadcast(event)

	if errors.Is(err, zoo.ErrNumericalInstability) {
		slog.Warn("Job stopped on numerical instability", "job_id", jobID, "error", err)
		return
	}
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	recordJobEnd(jobID, StateCancelled)
	endTime := time.Now()
	var snap zoo.State
	var summary bench.Summary
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
		snap, summary = j.Snapshot, j.Summary
	})
	jm.broadcaster.Broadcast(newProgressEvent(jobID, StateCancelled, snap, summary))

	slog.Info("Job cancelled", "job_id", jobID, "iteration", snap.Iteration)
}
