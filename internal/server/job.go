package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/adaptivezoo/internal/bench"
	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Terminal reports whether the job can no longer change state.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobFinished = errors.New("job already finished")
)

// JobConfig is the request body for creating a job.
type JobConfig struct {
	Benchmark string     `json:"benchmark"`
	Config    zoo.Config `json:"config"`
	Seed      int64      `json:"seed"`

	// IntervalMs delays each step; 0 steps as fast as possible
	IntervalMs int `json:"intervalMs"`
}

// Validate checks the benchmark name and optimizer configuration.
func (c JobConfig) Validate() error {
	if _, err := bench.Lookup(c.Benchmark); err != nil {
		return err
	}
	if c.IntervalMs < 0 {
		return fmt.Errorf("intervalMs must be non-negative, got %d", c.IntervalMs)
	}
	return c.Config.Validate()
}

// Job represents an optimization job
type Job struct {
	ID        string        `json:"id"`
	State     JobState      `json:"state"`
	Config    JobConfig     `json:"config"`
	Snapshot  zoo.State     `json:"snapshot"`
	Summary   bench.Summary `json:"summary"`
	StartTime time.Time     `json:"startTime"`
	EndTime   *time.Time    `json:"endTime,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	cancels     map[string]context.CancelFunc
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		cancels:     make(map[string]context.CancelFunc),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob creates a new pending job with the given configuration
func (jm *JobManager) CreateJob(config JobConfig) Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
	}

	jm.jobs[job.ID] = job
	return *job
}

// GetJob returns a copy of the job. Snapshot slices are replaced, never
// mutated, so the copy stays consistent.
func (jm *JobManager) GetJob(id string) (Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return Job{}, false
	}
	return *job, true
}

// ListJobs returns copies of all jobs, oldest first
func (jm *JobManager) ListJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.Before(jobs[j].StartTime)
	})
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	updateFn(job)
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	running := make([]Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			running = append(running, *job)
		}
	}
	return running
}

// setCancel registers the function that stops the job's worker.
func (jm *JobManager) setCancel(id string, cancel context.CancelFunc) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.cancels[id] = cancel
}

// clearCancel releases the worker's context once it has finished.
func (jm *JobManager) clearCancel(id string) {
	jm.mu.Lock()
	cancel, ok := jm.cancels[id]
	delete(jm.cancels, id)
	jm.mu.Unlock()

	if ok {
		cancel()
	}
}

// CancelJob asks the job's worker to stop. The worker observes the request
// between steps and marks the job cancelled.
func (jm *JobManager) CancelJob(id string) error {
	jm.mu.Lock()
	job, exists := jm.jobs[id]
	if !exists {
		jm.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if job.State.Terminal() {
		jm.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrJobFinished, id, job.State)
	}
	cancel := jm.cancels[id]
	jm.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// CancelAll stops every worker, used on shutdown.
func (jm *JobManager) CancelAll() {
	jm.mu.RLock()
	cancels := make([]context.CancelFunc, 0, len(jm.cancels))
	for _, cancel := range jm.cancels {
		cancels = append(cancels, cancel)
	}
	jm.mu.RUnlock()

	for _, cancel := range cancels {
		cancel()
	}
}
