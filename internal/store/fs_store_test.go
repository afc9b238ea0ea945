package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return store, tempDir
}

// createTestRecord creates a consistent zoo run record with 3 iterations.
func createTestRecord(runID string) *RunRecord {
	return &RunRecord{
		ID:        runID,
		Benchmark: "sphere",
		Optimizer: "zoo",
		Config: zoo.Config{
			OriginalDimension: 3,
			ReducedDimension:  2,
			Delta:             0.01,
			Eta0:              0.1,
			Beta:              0.9,
			MaxIterations:     3,
		},
		Seed:          42,
		Solution:      []float64{0.1, -0.2, 0.05},
		History:       []float64{4.2, 3.1, 2.5, 2.4},
		GradientNorms: []float64{0, 1.5, 1.1, 0.9},
		InitialValue:  4.2,
		FinalValue:    2.4,
		Iterations:    3,
		Timestamp:     time.Now(),
	}
}

func TestNewFSStore(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if store.BaseDir() != tempDir {
		t.Errorf("BaseDir = %q, want %q", store.BaseDir(), tempDir)
	}
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestSaveRun(t *testing.T) {
	store, tempDir := setupTestStore(t)

	record := createTestRecord("test-run-123")
	if err := store.SaveRun(record); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "runs", record.ID, "run.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Run file was not created at %s", expectedPath)
	}
	if _, err := os.Stat(expectedPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should not remain after save")
	}
}

func TestSaveRun_Nil(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.SaveRun(nil); err == nil {
		t.Error("Expected error for nil record")
	}
}

func TestSaveRun_Invalid(t *testing.T) {
	store, tempDir := setupTestStore(t)

	record := createTestRecord("")
	err := store.SaveRun(record)
	if err == nil {
		t.Fatal("Expected error for empty ID")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if verr.Field != "ID" {
		t.Errorf("Field = %q, want ID", verr.Field)
	}

	if _, err := os.Stat(filepath.Join(tempDir, "runs")); !os.IsNotExist(err) {
		t.Error("Nothing should be written for an invalid record")
	}
}

func TestSaveRun_Overwrite(t *testing.T) {
	store, _ := setupTestStore(t)

	record := createTestRecord("overwrite")
	if err := store.SaveRun(record); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	record.FinalValue = 1.0
	record.History[3] = 1.0
	if err := store.SaveRun(record); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, err := store.LoadRun("overwrite")
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}
	if loaded.FinalValue != 1.0 {
		t.Errorf("FinalValue = %f, want 1.0", loaded.FinalValue)
	}
}

func TestLoadRun(t *testing.T) {
	store, _ := setupTestStore(t)

	record := createTestRecord("load-me")
	if err := store.SaveRun(record); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	loaded, err := store.LoadRun("load-me")
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}

	if loaded.ID != record.ID || loaded.Benchmark != record.Benchmark || loaded.Optimizer != record.Optimizer {
		t.Errorf("Metadata mismatch: got %+v", loaded)
	}
	if loaded.Config != record.Config {
		t.Errorf("Config mismatch: got %+v, want %+v", loaded.Config, record.Config)
	}
	if len(loaded.History) != len(record.History) {
		t.Fatalf("History length = %d, want %d", len(loaded.History), len(record.History))
	}
	for i := range record.History {
		if loaded.History[i] != record.History[i] {
			t.Errorf("History[%d] = %f, want %f", i, loaded.History[i], record.History[i])
		}
	}
	if !loaded.Timestamp.Equal(record.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", loaded.Timestamp, record.Timestamp)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("Loaded record should validate: %v", err)
	}
}

func TestLoadRun_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadRun("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.RunID != "missing" {
		t.Errorf("Expected NotFoundError with RunID, got %v", err)
	}
}

func TestLoadRun_EmptyID(t *testing.T) {
	store, _ := setupTestStore(t)

	if _, err := store.LoadRun(""); err == nil {
		t.Error("Expected error for empty runID")
	}
}

func TestLoadRun_Corrupted(t *testing.T) {
	store, tempDir := setupTestStore(t)

	dir := filepath.Join(tempDir, "runs", "broken")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := store.LoadRun("broken")
	if err == nil {
		t.Fatal("Expected error for corrupted record")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Corrupted record should not be reported as not found")
	}
}

func TestListRuns_Empty(t *testing.T) {
	store, _ := setupTestStore(t)

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("Expected no runs, got %d", len(infos))
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	store, _ := setupTestStore(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "newest", "middle"} {
		record := createTestRecord(id)
		record.Timestamp = base.Add(time.Duration([]int{0, 2, 1}[i]) * time.Hour)
		if err := store.SaveRun(record); err != nil {
			t.Fatalf("SaveRun(%s) failed: %v", id, err)
		}
	}

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}

	want := []string{"newest", "middle", "old"}
	if len(infos) != len(want) {
		t.Fatalf("Expected %d runs, got %d", len(want), len(infos))
	}
	for i, id := range want {
		if infos[i].ID != id {
			t.Errorf("infos[%d].ID = %q, want %q", i, infos[i].ID, id)
		}
	}
}

func TestListRuns_SkipsInvalidDirectories(t *testing.T) {
	store, tempDir := setupTestStore(t)

	if err := store.SaveRun(createTestRecord("good")); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	runsDir := filepath.Join(tempDir, "runs")
	// directory without run.json
	if err := os.MkdirAll(filepath.Join(runsDir, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	// stray file
	if err := os.WriteFile(filepath.Join(runsDir, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	// corrupted record
	if err := os.MkdirAll(filepath.Join(runsDir, "corrupt"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(runsDir, "corrupt", "run.json"), []byte("]"), 0644); err != nil {
		t.Fatal(err)
	}

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 1 || infos[0].ID != "good" {
		t.Errorf("Expected only 'good', got %+v", infos)
	}
}

func TestDeleteRun(t *testing.T) {
	store, tempDir := setupTestStore(t)

	record := createTestRecord("delete-me")
	if err := store.SaveRun(record); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	writer, err := store.OpenTrace(record.ID)
	if err != nil {
		t.Fatalf("OpenTrace failed: %v", err)
	}
	if err := writer.WriteHistory(record.History, record.GradientNorms, 0.05); err != nil {
		t.Fatalf("WriteHistory failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := store.DeleteRun(record.ID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tempDir, "runs", record.ID)); !os.IsNotExist(err) {
		t.Error("Run directory should be removed along with its trace")
	}
	if _, err := store.LoadRun(record.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteRun_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.DeleteRun("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRun_EmptyID(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.DeleteRun(""); err == nil {
		t.Error("Expected error for empty runID")
	}
}

func TestConcurrentSave(t *testing.T) {
	store, _ := setupTestStore(t)

	const numRuns = 10
	var wg sync.WaitGroup
	for i := 0; i < numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			record := createTestRecord(fmt.Sprintf("concurrent-run-%d", idx))
			if err := store.SaveRun(record); err != nil {
				t.Errorf("Concurrent save failed for %s: %v", record.ID, err)
			}
		}(i)
	}
	wg.Wait()

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != numRuns {
		t.Errorf("Expected %d runs, got %d", numRuns, len(infos))
	}
}

func TestFSStoreImplementsStore(t *testing.T) {
	var _ Store = (*FSStore)(nil)
}
