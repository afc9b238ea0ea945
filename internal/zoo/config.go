package zoo

import (
	"errors"
	"fmt"
	"math"
)

// Config holds the hyper-parameters of one optimization run.
type Config struct {
	OriginalDimension int     `json:"originalDimension" mapstructure:"originalDimension"`
	ReducedDimension  int     `json:"reducedDimension" mapstructure:"reducedDimension"`
	Delta             float64 `json:"delta" mapstructure:"delta"`
	Eta0              float64 `json:"eta0" mapstructure:"eta0"`
	Beta              float64 `json:"beta" mapstructure:"beta"`
	MaxIterations     int     `json:"maxIterations" mapstructure:"maxIterations"`
}

// DefaultConfig returns the settings the interactive demo starts with.
func DefaultConfig() Config {
	return Config{
		OriginalDimension: 100,
		ReducedDimension:  20,
		Delta:             0.01,
		Eta0:              0.1,
		Beta:              0.9,
		MaxIterations:     200,
	}
}

// MaxProjectionEntries bounds ReducedDimension*OriginalDimension. Φ and its
// transpose each hold that many float64 values.
const MaxProjectionEntries = 1 << 24

// ErrInvalidConfig matches every *ConfigError via errors.Is.
var ErrInvalidConfig = errors.New("invalid optimizer configuration")

// ConfigError reports the first configuration field that violates its range.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s = %v %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Validate checks every invariant of the configuration.
func (c Config) Validate() error {
	if c.OriginalDimension < 1 {
		return &ConfigError{Field: "originalDimension", Value: c.OriginalDimension, Reason: "must be at least 1"}
	}
	if c.ReducedDimension < 1 || c.ReducedDimension > c.OriginalDimension {
		return &ConfigError{
			Field:  "reducedDimension",
			Value:  c.ReducedDimension,
			Reason: fmt.Sprintf("outside allowed range [1, %d]", c.OriginalDimension),
		}
	}
	// division keeps the check free of overflow
	if c.ReducedDimension > MaxProjectionEntries/c.OriginalDimension {
		return &ConfigError{
			Field:  "reducedDimension",
			Value:  c.ReducedDimension,
			Reason: fmt.Sprintf("times originalDimension %d exceeds %d projection entries", c.OriginalDimension, MaxProjectionEntries),
		}
	}
	if !(c.Delta > 0) || math.IsInf(c.Delta, 0) {
		return &ConfigError{Field: "delta", Value: c.Delta, Reason: "must be positive and finite"}
	}
	if !(c.Eta0 > 0) || math.IsInf(c.Eta0, 0) {
		return &ConfigError{Field: "eta0", Value: c.Eta0, Reason: "must be positive and finite"}
	}
	if !(c.Beta > 0 && c.Beta < 1) {
		return &ConfigError{Field: "beta", Value: c.Beta, Reason: "outside allowed range (0, 1)"}
	}
	if c.MaxIterations < 0 {
		return &ConfigError{Field: "maxIterations", Value: c.MaxIterations, Reason: "cannot be negative"}
	}
	return nil
}
