package bench

import (
	"log/slog"
	"math"
)

// PlateauConfig defines when an objective trace counts as stalled.
type PlateauConfig struct {
	// Patience is the number of consecutive values without significant improvement
	Patience int

	// Threshold is the minimum relative improvement that counts as progress
	// Relative improvement = (lastSignificant - value) / |lastSignificant|
	Threshold float64
}

// DefaultPlateauConfig returns sensible defaults for plateau detection
func DefaultPlateauConfig() PlateauConfig {
	return PlateauConfig{
		Patience:  25,
		Threshold: 0.001, // 0.1% improvement
	}
}

// PlateauDetector watches an objective trace and reports the iteration at
// which it stopped improving. It only observes; runs always use their full
// iteration budget.
type PlateauDetector struct {
	config          PlateauConfig
	count           int
	best            float64
	lastSignificant float64
	lastImprovedAt  int
	staleCount      int
	plateauAt       int // -1 until detected
}

// NewPlateauDetector creates a detector with the given config
func NewPlateauDetector(config PlateauConfig) *PlateauDetector {
	d := &PlateauDetector{config: config}
	d.Reset()
	return d
}

// Observe records the next value and reports whether the plateau was reached
// with this value.
func (d *PlateauDetector) Observe(value float64) bool {
	idx := d.count
	d.count++

	if value < d.best {
		d.best = value
	}

	if idx == 0 {
		d.lastSignificant = value
		return false
	}
	if d.plateauAt >= 0 {
		return false
	}

	denom := math.Abs(d.lastSignificant)
	if denom == 0 {
		denom = 1
	}
	relative := (d.lastSignificant - value) / denom

	if relative >= d.config.Threshold {
		d.lastSignificant = value
		d.lastImprovedAt = idx
		d.staleCount = 0
		return false
	}

	d.staleCount++
	if d.staleCount >= d.config.Patience {
		d.plateauAt = d.lastImprovedAt
		slog.Debug("Objective plateau detected",
			"plateau_at", d.plateauAt,
			"stale_count", d.staleCount,
			"best", d.best,
		)
		return true
	}
	return false
}

// PlateauAt returns the index of the last significant improvement once a
// plateau has been detected.
func (d *PlateauDetector) PlateauAt() (int, bool) {
	return d.plateauAt, d.plateauAt >= 0
}

// Best returns the lowest value observed so far
func (d *PlateauDetector) Best() float64 {
	return d.best
}

// StaleCount returns the current number of values without improvement
func (d *PlateauDetector) StaleCount() int {
	return d.staleCount
}

// Reset clears the detector's state
func (d *PlateauDetector) Reset() {
	d.count = 0
	d.best = math.Inf(1)
	d.lastSignificant = math.Inf(1)
	d.lastImprovedAt = 0
	d.staleCount = 0
	d.plateauAt = -1
}
