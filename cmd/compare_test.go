package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/cwbudde/adaptivezoo/internal/opt"
	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

func testSettings() opt.Settings {
	return opt.Settings{
		ZOO: zoo.Config{
			OriginalDimension: 5,
			ReducedDimension:  2,
			Delta:             0.01,
			Eta0:              0.1,
			Beta:              0.9,
			MaxIterations:     20,
		},
		PopSize: 20,
		Seed:    3,
	}
}

func TestCompareOptimizers(t *testing.T) {
	results, err := compareOptimizers("sphere", opt.Names(), testSettings())
	if err != nil {
		t.Fatalf("compareOptimizers failed: %v", err)
	}
	if len(results) != len(opt.Names()) {
		t.Fatalf("Expected %d results, got %d", len(opt.Names()), len(results))
	}

	seen := map[string]bool{}
	for i, r := range results {
		seen[r.Optimizer] = true
		if r.Evals == 0 {
			t.Errorf("%s reported no evaluations", r.Optimizer)
		}
		if i > 0 && results[i-1].Value > r.Value {
			t.Errorf("Results not sorted by value: %v before %v", results[i-1].Value, r.Value)
		}
	}
	for _, name := range opt.Names() {
		if !seen[name] {
			t.Errorf("Missing result for %s", name)
		}
	}
}

func TestCompareOptimizers_Deterministic(t *testing.T) {
	a, err := compareOptimizers("rastrigin", []string{"zoo"}, testSettings())
	if err != nil {
		t.Fatalf("compareOptimizers failed: %v", err)
	}
	b, err := compareOptimizers("rastrigin", []string{"zoo"}, testSettings())
	if err != nil {
		t.Fatalf("compareOptimizers failed: %v", err)
	}
	if a[0].Value != b[0].Value || a[0].Evals != b[0].Evals {
		t.Errorf("Same seed gave %+v and %+v", a[0], b[0])
	}
}

func TestCompareOptimizers_Errors(t *testing.T) {
	if _, err := compareOptimizers("sphere", []string{"zoo", "sgd"}, testSettings()); err == nil {
		t.Error("Expected error for unknown optimizer")
	}
	if _, err := compareOptimizers("sphere", nil, testSettings()); err == nil {
		t.Error("Expected error for empty optimizer list")
	}

	s := testSettings()
	s.ZOO.Beta = 0
	if _, err := compareOptimizers("sphere", opt.Names(), s); !errors.Is(err, zoo.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestCompareOptimizers_FailedBackEndIsAnError(t *testing.T) {
	s := testSettings()
	s.ZOO.MaxIterations = 0

	results, err := compareOptimizers("sphere", opt.Names(), s)
	if err == nil {
		t.Fatalf("Expected mayfly to fail with zero iterations, got results %+v", results)
	}
	if !strings.Contains(err.Error(), "mayfly") {
		t.Errorf("Error should name the failed back-end: %v", err)
	}

	// zoo alone accepts a zero budget and reports the starting value
	results, err = compareOptimizers("sphere", []string{"zoo"}, s)
	if err != nil {
		t.Fatalf("compareOptimizers failed: %v", err)
	}
	if results[0].Value <= 0 {
		t.Errorf("Expected the positive starting value, got %v", results[0].Value)
	}
}

func TestPrintComparison(t *testing.T) {
	var out bytes.Buffer
	printComparison(&out, []compareResult{
		{Optimizer: "zoo", Value: 0.5, Evals: 41},
		{Optimizer: "mayfly", Value: 1.5, Evals: 400},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header, rule and 2 rows, got:\n%s", out.String())
	}
	if !strings.HasPrefix(lines[2], "1") || !strings.Contains(lines[2], "zoo") {
		t.Errorf("First row should rank zoo first: %q", lines[2])
	}
}
