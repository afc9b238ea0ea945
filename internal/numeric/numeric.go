// Package numeric holds the stateless vector and matrix primitives used by the
// optimizers, Gaussian sampling from an explicit random source, and the
// benchmark objective functions.
//
// Everything here is a pure function of its arguments. Functions that sample
// take a *rand.Rand so callers own their randomness; a *rand.Rand must not be
// shared between goroutines.
package numeric

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Objective maps a point in R^n to a scalar to be minimized.
type Objective func(x []float64) float64

// MatVec returns m·v as a new slice of length rows(m).
// It panics if len(v) does not match the column count of m.
func MatVec(m mat.Matrix, v []float64) []float64 {
	r, c := m.Dims()
	if len(v) != c {
		panic(fmt.Sprintf("numeric: dimension mismatch: %dx%d matrix times vector of length %d", r, c, len(v)))
	}
	out := mat.NewVecDense(r, nil)
	out.MulVec(m, mat.NewVecDense(c, v))
	return out.RawVector().Data
}

// Transpose returns a new matrix with rows and columns swapped.
func Transpose(m *mat.Dense) *mat.Dense {
	return mat.DenseCopyOf(m.T())
}

// Norm returns the Euclidean norm of v.
func Norm(v []float64) float64 {
	return floats.Norm(v, 2)
}

// IsFinite reports whether every component of v is neither NaN nor infinite.
func IsFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// GaussianRandom draws one standard normal sample with the Box-Muller transform.
func GaussianRandom(rng *rand.Rand) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	v := rng.Float64()
	for v == 0 {
		v = rng.Float64()
	}
	return math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
}

// RandomVector returns n independent standard normal samples.
func RandomVector(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = GaussianRandom(rng)
	}
	return v
}

// RandomProjection returns a dReduced x d matrix whose entries are standard
// normal samples scaled by 1/sqrt(dReduced), so projected norms match the
// original ones in expectation.
func RandomProjection(rng *rand.Rand, d, dReduced int) *mat.Dense {
	scale := math.Sqrt(float64(dReduced))
	data := make([]float64, dReduced*d)
	for i := range data {
		data[i] = GaussianRandom(rng) / scale
	}
	return mat.NewDense(dReduced, d, data)
}
