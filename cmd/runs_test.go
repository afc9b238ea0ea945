package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/adaptivezoo/internal/store"
	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

func testInfos(now time.Time) []store.RunInfo {
	return []store.RunInfo{
		{ID: "run1", Timestamp: now.AddDate(0, 0, -10)},
		{ID: "run2", Timestamp: now.AddDate(0, 0, -5)},
		{ID: "run3", Timestamp: now.AddDate(0, 0, -1)},
		{ID: "run4", Timestamp: now.AddDate(0, 0, -30)},
		{ID: "run5", Timestamp: now.AddDate(0, 0, -2)},
	}
}

func ids(infos []store.RunInfo) string {
	parts := make([]string, len(infos))
	for i, info := range infos {
		parts[i] = info.ID
	}
	return strings.Join(parts, ",")
}

func TestSelectRunsForDeletion(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		keepLast      int
		olderThanDays int
		want          string
	}{
		{"by age", 0, 7, "run4,run1"},
		{"by count", 2, 0, "run4,run1,run2"},
		{"combined", 3, 7, "run4,run1"},
		{"combined count dominates", 1, 7, "run4,run1,run2,run5"},
		{"keep more than exist", 10, 0, ""},
		{"no rules", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectRunsForDeletion(testInfos(now), tt.keepLast, tt.olderThanDays, now)
			if ids(got) != tt.want {
				t.Errorf("selectRunsForDeletion(%d, %d) = %q, want %q", tt.keepLast, tt.olderThanDays, ids(got), tt.want)
			}
		})
	}
}

func TestSelectRunsForDeletion_DoesNotReorderInput(t *testing.T) {
	now := time.Now()
	infos := testInfos(now)
	selectRunsForDeletion(infos, 2, 0, now)
	if ids(infos) != "run1,run2,run3,run4,run5" {
		t.Errorf("Input was reordered: %s", ids(infos))
	}
}

func TestGetDirSize(t *testing.T) {
	tmpDir := t.TempDir()

	content := []byte("Hello, World!")
	if err := os.WriteFile(filepath.Join(tmpDir, "test.txt"), content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	size, err := getDirSize(tmpDir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}
	if size < int64(len(content)) {
		t.Errorf("Expected size >= %d, got %d", len(content), size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		if result := formatBytes(tt.bytes); result != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		if got := confirm(strings.NewReader(tt.input), &out, "ok? "); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if out.String() != "ok? " {
			t.Errorf("Prompt not written, got %q", out.String())
		}
	}
}

func saveTestRun(t *testing.T, s *store.FSStore, id string, age time.Duration) {
	t.Helper()
	cfg := zoo.Config{OriginalDimension: 2, ReducedDimension: 1, Delta: 0.01, Eta0: 0.1, Beta: 0.9, MaxIterations: 1}
	record := store.NewRunRecord(id, "sphere", "zoo", cfg, 1, zoo.State{
		ConvergenceHistory: []float64{2, 1},
		GradientNorms:      []float64{0, 0.5},
		Iteration:          1,
		X:                  []float64{0.5, 0.5},
	})
	record.Timestamp = time.Now().Add(-age)
	if err := s.SaveRun(record); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
}

func TestRunsCommands(t *testing.T) {
	tmpDir := t.TempDir()
	runStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	saveTestRun(t, runStore, "old-run", 30*24*time.Hour)
	saveTestRun(t, runStore, "new-run", time.Hour)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs([]string{"runs", "list", "--data-dir", tmpDir})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("runs list failed: %v", err)
	}
	if !strings.Contains(out.String(), "old-run") || !strings.Contains(out.String(), "Total runs: 2") {
		t.Errorf("Unexpected list output:\n%s", out.String())
	}

	rootCmd.SetArgs([]string{"runs", "clean", "--data-dir", tmpDir, "--older-than", "7", "--force"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("runs clean failed: %v", err)
	}

	if _, err := runStore.LoadRun("old-run"); err == nil {
		t.Error("Expected old run to be deleted")
	}
	if _, err := runStore.LoadRun("new-run"); err != nil {
		t.Errorf("New run should survive: %v", err)
	}
}

func TestRunsClean_RequiresRule(t *testing.T) {
	rootCmd.SetArgs([]string{"runs", "clean", "--data-dir", t.TempDir(), "--keep-last", "0", "--older-than", "0"})
	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--keep-last") {
		t.Errorf("Expected missing rule error, got %v", err)
	}
}
