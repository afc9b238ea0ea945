package numeric

import "math"

// Rastrigin is multimodal with its global minimum 0 at the origin.
func Rastrigin(x []float64) float64 {
	const a = 10.0
	sum := a * float64(len(x))
	for _, xi := range x {
		sum += xi*xi - a*math.Cos(2*math.Pi*xi)
	}
	return sum
}

// Sphere is convex with its global minimum 0 at the origin.
func Sphere(x []float64) float64 {
	var sum float64
	for _, xi := range x {
		sum += xi * xi
	}
	return sum
}

// Rosenbrock is a curved valley with its global minimum 0 at the all-ones
// vector. Vectors shorter than 2 evaluate to 0.
func Rosenbrock(x []float64) float64 {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		sum += 100*a*a + b*b
	}
	return sum
}
