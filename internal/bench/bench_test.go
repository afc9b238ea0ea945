package bench

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"rastrigin", "sphere", "rosenbrock"} {
		t.Run(name, func(t *testing.T) {
			b, err := Lookup(name)
			if err != nil {
				t.Fatalf("Lookup(%q) failed: %v", name, err)
			}
			if b.Name != name {
				t.Errorf("Expected name %q, got %q", name, b.Name)
			}
			if b.Func == nil {
				t.Fatal("Func should not be nil")
			}
			if b.Lower >= b.Upper {
				t.Errorf("Invalid domain [%f, %f]", b.Lower, b.Upper)
			}
		})
	}

	_, err := Lookup("ackley")
	var unknown *UnknownBenchmarkError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownBenchmarkError, got %v", err)
	}
	if unknown.Name != "ackley" {
		t.Errorf("Expected name ackley, got %q", unknown.Name)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	expected := []string{"rastrigin", "rosenbrock", "sphere"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %d names, got %d", len(expected), len(names))
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], expected[i])
		}
	}
}

func TestBounds(t *testing.T) {
	b, _ := Lookup("rastrigin")
	lower, upper := b.Bounds(3)
	if len(lower) != 3 || len(upper) != 3 {
		t.Fatalf("Expected 3 bounds, got %d/%d", len(lower), len(upper))
	}
	for i := range lower {
		if lower[i] != -5.12 || upper[i] != 5.12 {
			t.Errorf("Bound %d = [%f, %f]", i, lower[i], upper[i])
		}
	}
}

func TestSummarize(t *testing.T) {
	s := zoo.State{
		ConvergenceHistory: []float64{10, 8, 4, 5},
		GradientNorms:      []float64{0, 2, 4, 6},
		Iteration:          3,
		StepSize:           0.05,
	}

	sum := Summarize(s)

	if sum.InitialValue != 10 || sum.CurrentValue != 5 {
		t.Errorf("Values = %f -> %f, want 10 -> 5", sum.InitialValue, sum.CurrentValue)
	}
	if sum.Improvement != 5 {
		t.Errorf("Improvement = %f, want 5", sum.Improvement)
	}
	if sum.ImprovementPercent != 50 {
		t.Errorf("ImprovementPercent = %f, want 50", sum.ImprovementPercent)
	}
	if sum.BestValue != 4 || sum.BestIteration != 2 {
		t.Errorf("Best = %f at %d, want 4 at 2", sum.BestValue, sum.BestIteration)
	}
	if sum.GradientNorm != 6 {
		t.Errorf("GradientNorm = %f, want 6", sum.GradientNorm)
	}
	if sum.AvgGradientNorm != 3 {
		t.Errorf("AvgGradientNorm = %f, want 3", sum.AvgGradientNorm)
	}
	if sum.Iteration != 3 || sum.StepSize != 0.05 {
		t.Errorf("Iteration/StepSize not carried over: %d, %f", sum.Iteration, sum.StepSize)
	}
}

func TestSummarizeEdgeCases(t *testing.T) {
	empty := Summarize(zoo.State{})
	if empty.CurrentValue != 0 || empty.AvgGradientNorm != 0 {
		t.Errorf("Empty state should summarize to zeros, got %+v", empty)
	}

	zero := Summarize(zoo.State{ConvergenceHistory: []float64{0, -1}, GradientNorms: []float64{0}})
	if zero.ImprovementPercent != 0 {
		t.Errorf("ImprovementPercent with zero initial value = %f, want 0", zero.ImprovementPercent)
	}
	if zero.Improvement != 1 {
		t.Errorf("Improvement = %f, want 1", zero.Improvement)
	}
}

func TestPlateauDetector(t *testing.T) {
	d := NewPlateauDetector(PlateauConfig{Patience: 3, Threshold: 0.01})

	values := []float64{100, 90, 80, 79.9, 79.8, 79.7}
	detectedAt := -1
	for i, v := range values {
		if d.Observe(v) {
			detectedAt = i
		}
	}

	if detectedAt != 5 {
		t.Fatalf("Plateau should be reported on value 5, got %d", detectedAt)
	}
	at, ok := d.PlateauAt()
	if !ok || at != 2 {
		t.Errorf("PlateauAt = %d, %v; want 2, true", at, ok)
	}
	if d.Best() != 79.7 {
		t.Errorf("Best = %f, want 79.7", d.Best())
	}

	// Further values do not re-trigger.
	if d.Observe(79.6) {
		t.Error("Plateau should only be reported once")
	}

	d.Reset()
	if _, ok := d.PlateauAt(); ok {
		t.Error("Reset should clear plateau")
	}
	if !math.IsInf(d.Best(), 1) {
		t.Error("Reset should clear best value")
	}
}

func TestPlateauDetectorKeepsImproving(t *testing.T) {
	d := NewPlateauDetector(DefaultPlateauConfig())
	v := 1000.0
	for i := 0; i < 200; i++ {
		if d.Observe(v) {
			t.Fatalf("Steadily improving trace reported plateau at %d", i)
		}
		v *= 0.9
	}
	if d.StaleCount() != 0 {
		t.Errorf("StaleCount = %d, want 0", d.StaleCount())
	}
}

func TestPlateauDetectorZeroBaseline(t *testing.T) {
	d := NewPlateauDetector(PlateauConfig{Patience: 2, Threshold: 0.01})
	d.Observe(0)
	d.Observe(0)
	if !d.Observe(0) {
		t.Error("Flat zero trace should plateau after patience values")
	}
}
