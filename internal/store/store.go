package store

// Store persists finished optimization runs.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return ErrNotFound if the run doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun atomically saves the record under record.ID, overwriting any
	// previous record with the same ID.
	SaveRun(record *RunRecord) error

	// LoadRun retrieves the record for the given run.
	// Returns ErrNotFound if no record exists for this runID.
	LoadRun(runID string) (*RunRecord, error)

	// ListRuns returns metadata for all saved runs, newest first.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes the record and its trace.
	// Returns ErrNotFound if no record exists for this runID.
	DeleteRun(runID string) error

	// OpenTrace creates or truncates the step trace of a run.
	OpenTrace(runID string) (*TraceWriter, error)
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
