package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// FSStore implements the Store interface on the local filesystem.
// Runs live in <baseDir>/runs/<runID>/ next to their trace.jsonl.
//
// Writes go through a temp file and rename, so concurrent readers never see
// a partial run.json and no locks are needed.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSStore{baseDir: baseDir}, nil
}

// BaseDir returns the root directory of the store.
func (s *FSStore) BaseDir() string {
	return s.baseDir
}

func runDir(baseDir, runID string) string {
	return filepath.Join(baseDir, "runs", runID)
}

func (s *FSStore) recordPath(runID string) string {
	return filepath.Join(runDir(s.baseDir, runID), "run.json")
}

// SaveRun atomically saves the record under record.ID.
func (s *FSStore) SaveRun(record *RunRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid run record: %w", err)
	}

	dir := runDir(s.baseDir, record.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize run record: %w", err)
	}

	finalPath := s.recordPath(record.ID)
	tempPath := finalPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp run file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename run file: %w", err)
	}

	slog.Debug("Run saved", "runID", record.ID, "path", finalPath)
	return nil
}

// LoadRun retrieves the record for the given run.
func (s *FSStore) LoadRun(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	path := s.recordPath(runID)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{RunID: runID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var record RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to deserialize run record: %w", err)
	}

	slog.Debug("Run loaded", "runID", runID, "path", path)
	return &record, nil
}

// ListRuns returns metadata for all saved runs, newest first.
// Directories without a readable run.json are skipped.
func (s *FSStore) ListRuns() ([]RunInfo, error) {
	runsDir := filepath.Join(s.baseDir, "runs")

	entries, err := os.ReadDir(runsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []RunInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	infos := make([]RunInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		record, err := s.LoadRun(entry.Name())
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			slog.Warn("Failed to load run for listing", "runID", entry.Name(), "error", err)
			continue
		}
		infos = append(infos, record.ToInfo())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp.After(infos[j].Timestamp)
	})

	slog.Debug("Listed runs", "count", len(infos))
	return infos, nil
}

// DeleteRun removes the run directory including its trace.
func (s *FSStore) DeleteRun(runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}

	dir := runDir(s.baseDir, runID)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return &NotFoundError{RunID: runID}
	} else if err != nil {
		return fmt.Errorf("failed to stat run directory: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove run directory: %w", err)
	}

	slog.Debug("Run deleted", "runID", runID, "path", dir)
	return nil
}

// OpenTrace creates or truncates <baseDir>/runs/<runID>/trace.jsonl.
func (s *FSStore) OpenTrace(runID string) (*TraceWriter, error) {
	return NewTraceWriter(s.baseDir, runID, false)
}
