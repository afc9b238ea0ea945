package bench

import (
	"math"

	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

// Summary holds the statistics shown next to a running optimization.
type Summary struct {
	InitialValue       float64 `json:"initialValue"`
	CurrentValue       float64 `json:"currentValue"`
	Improvement        float64 `json:"improvement"`
	ImprovementPercent float64 `json:"improvementPercent"`
	BestValue          float64 `json:"bestValue"`
	BestIteration      int     `json:"bestIteration"`
	GradientNorm       float64 `json:"gradientNorm"`
	AvgGradientNorm    float64 `json:"avgGradientNorm"`
	StepSize           float64 `json:"stepSize"`
	Iteration          int     `json:"iteration"`
}

// Summarize derives a Summary from a snapshot. An empty history yields zeros.
func Summarize(s zoo.State) Summary {
	sum := Summary{Iteration: s.Iteration, StepSize: s.StepSize}

	if n := len(s.ConvergenceHistory); n > 0 {
		sum.InitialValue = s.ConvergenceHistory[0]
		sum.CurrentValue = s.ConvergenceHistory[n-1]
		sum.Improvement = sum.InitialValue - sum.CurrentValue
		if sum.InitialValue != 0 {
			sum.ImprovementPercent = sum.Improvement / math.Abs(sum.InitialValue) * 100
		}

		sum.BestValue = s.ConvergenceHistory[0]
		for i, v := range s.ConvergenceHistory {
			if v < sum.BestValue {
				sum.BestValue = v
				sum.BestIteration = i
			}
		}
	}

	if n := len(s.GradientNorms); n > 0 {
		sum.GradientNorm = s.GradientNorms[n-1]
		var total float64
		for _, g := range s.GradientNorms {
			total += g
		}
		sum.AvgGradientNorm = total / float64(n)
	}

	return sum
}
