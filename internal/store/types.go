package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

// RunRecord is the report of one finished optimization run.
//
// It records the outcome, not the optimizer: the projection matrix and the
// reduced point are not stored, so a run can be inspected and compared later
// but never continued.
type RunRecord struct {
	// ID is the unique identifier of the run
	ID string `json:"id"`

	// Benchmark is the objective name (rastrigin, sphere, rosenbrock)
	Benchmark string `json:"benchmark"`

	// Optimizer is the back-end name (zoo, mayfly)
	Optimizer string `json:"optimizer"`

	Config zoo.Config `json:"config"`
	Seed   int64      `json:"seed"`

	// Solution is the final point in the original space
	Solution []float64 `json:"solution"`

	// History holds the objective value per iteration, seeded with f(x0)
	History []float64 `json:"history"`

	// GradientNorms holds ‖ĝ‖ per iteration, seeded with 0. Empty for back-ends
	// that do not estimate gradients.
	GradientNorms []float64 `json:"gradientNorms,omitempty"`

	InitialValue float64   `json:"initialValue"`
	FinalValue   float64   `json:"finalValue"`
	Iterations   int       `json:"iterations"`
	Timestamp    time.Time `json:"timestamp"`
}

// RunInfo is the listing view of a RunRecord without the vectors.
type RunInfo struct {
	ID           string    `json:"id"`
	Benchmark    string    `json:"benchmark"`
	Optimizer    string    `json:"optimizer"`
	Dimension    int       `json:"dimension"`
	Reduced      int       `json:"reduced"`
	InitialValue float64   `json:"initialValue"`
	FinalValue   float64   `json:"finalValue"`
	Iterations   int       `json:"iterations"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewRunRecord builds a record from a finished zoo snapshot.
// An empty id gets a fresh UUID.
func NewRunRecord(id, benchmark, optimizer string, config zoo.Config, seed int64, state zoo.State) *RunRecord {
	if id == "" {
		id = uuid.New().String()
	}
	r := &RunRecord{
		ID:            id,
		Benchmark:     benchmark,
		Optimizer:     optimizer,
		Config:        config,
		Seed:          seed,
		Solution:      state.X,
		History:       state.ConvergenceHistory,
		GradientNorms: state.GradientNorms,
		Iterations:    state.Iteration,
		Timestamp:     time.Now(),
	}
	if n := len(r.History); n > 0 {
		r.InitialValue = r.History[0]
		r.FinalValue = r.History[n-1]
	}
	return r
}

// ToInfo converts a full RunRecord to RunInfo (metadata only).
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		ID:           r.ID,
		Benchmark:    r.Benchmark,
		Optimizer:    r.Optimizer,
		Dimension:    r.Config.OriginalDimension,
		Reduced:      r.Config.ReducedDimension,
		InitialValue: r.InitialValue,
		FinalValue:   r.FinalValue,
		Iterations:   r.Iterations,
		Timestamp:    r.Timestamp,
	}
}

// Validate checks that the record is internally consistent.
func (r *RunRecord) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if r.Benchmark == "" {
		return &ValidationError{Field: "Benchmark", Reason: "cannot be empty"}
	}
	if r.Optimizer == "" {
		return &ValidationError{Field: "Optimizer", Reason: "cannot be empty"}
	}
	if r.Iterations < 0 {
		return &ValidationError{Field: "Iterations", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if len(r.Solution) != r.Config.OriginalDimension {
		return &ValidationError{
			Field:  "Solution",
			Reason: fmt.Sprintf("length mismatch: expected %d, got %d", r.Config.OriginalDimension, len(r.Solution)),
		}
	}
	if len(r.History) == 0 {
		return &ValidationError{Field: "History", Reason: "cannot be empty"}
	}
	if r.Optimizer == "zoo" {
		if err := r.Config.Validate(); err != nil {
			return &ValidationError{Field: "Config", Reason: err.Error()}
		}
		if len(r.History) != r.Iterations+1 {
			return &ValidationError{
				Field:  "History",
				Reason: fmt.Sprintf("length mismatch: expected %d values for %d iterations", r.Iterations+1, r.Iterations),
			}
		}
		if len(r.GradientNorms) != len(r.History) {
			return &ValidationError{Field: "GradientNorms", Reason: "length must match History"}
		}
	}
	return nil
}

// ValidationError represents a run record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
