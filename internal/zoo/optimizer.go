// Package zoo implements adaptive zeroth-order optimization in a randomly
// projected subspace.
//
// The optimizer never evaluates a derivative. Each step draws a random unit
// direction u in the reduced space, estimates the directional derivative of
// f(Φᵗz) with a forward difference of width Delta, and scales it back into a
// full reduced-space gradient estimate ĝ = ((f⁺ - f)/δ)·d̃·u. The step size
// follows a scalar AdaGrad rule, η_t = η₀ / sqrt(1 + β·Σ‖ĝ‖²), so it never grows.
package zoo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/adaptivezoo/internal/numeric"
)

// maxDirectionDraws bounds how often a degenerate random direction is redrawn.
const maxDirectionDraws = 8

var (
	// ErrNumericalInstability is returned when a step would produce a non-finite
	// gradient estimate or objective value. The optimizer state is unchanged.
	ErrNumericalInstability = errors.New("numerical instability")

	ErrNilObjective = errors.New("objective function is nil")
	ErrNilRand      = errors.New("random source is nil")
)

// State is a snapshot of the optimizer. Slices are copies owned by the caller.
type State struct {
	ConvergenceHistory []float64 `json:"convergenceHistory"`
	GradientNorms      []float64 `json:"gradientNorms"`
	Iteration          int       `json:"iteration"`
	X                  []float64 `json:"x"`
	IsRunning          bool      `json:"isRunning"`
	StepSize           float64   `json:"stepSize"`
}

// Result is the outcome of driving an optimizer to its terminal state.
type Result struct {
	Solution []float64 `json:"solution"`
	History  []float64 `json:"history"`
}

// Optimizer owns the full state of one trajectory. It is not safe for
// concurrent use; independent instances share nothing.
type Optimizer struct {
	f   numeric.Objective
	rng *rand.Rand
	cfg Config

	// direction draws the raw search direction before normalization
	direction func(rng *rand.Rand, n int) []float64

	phi  *mat.Dense // d̃ x d
	phiT *mat.Dense // d x d̃, same values as phi

	x []float64
	z []float64

	sqNorms   []float64
	sqNormSum float64
	history   []float64
	gradNorms []float64
	stepSize  float64
	iteration int
}

// New builds an optimizer for f. All randomness, including the projection and
// the starting point, is drawn from rng.
func New(f numeric.Objective, cfg Config, rng *rand.Rand) (*Optimizer, error) {
	if f == nil {
		return nil, ErrNilObjective
	}
	if rng == nil {
		return nil, ErrNilRand
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{f: f, rng: rng, direction: numeric.RandomVector}
	o.init(cfg)
	return o, nil
}

// init draws a new projection and starting point and reseeds the histories.
func (o *Optimizer) init(cfg Config) {
	o.cfg = cfg
	o.phi = numeric.RandomProjection(o.rng, cfg.OriginalDimension, cfg.ReducedDimension)
	o.phiT = numeric.Transpose(o.phi)

	o.x = numeric.RandomVector(o.rng, cfg.OriginalDimension)
	o.z = numeric.MatVec(o.phi, o.x)

	o.sqNorms = []float64{}
	o.sqNormSum = 0
	o.history = []float64{o.f(o.x)}
	o.gradNorms = []float64{0}
	o.stepSize = cfg.Eta0
	o.iteration = 0
}

// gradientEstimate carries one two-point estimate and the points it used.
type gradientEstimate struct {
	g     []float64
	u     []float64
	xBase []float64
	xPlus []float64
}

// estimateGradient builds the randomized finite-difference estimate at z.
// The base point is always reprojected from z.
func (o *Optimizer) estimateGradient(z []float64) (gradientEstimate, error) {
	u, err := o.unitDirection()
	if err != nil {
		return gradientEstimate{}, err
	}

	zPlus := make([]float64, len(z))
	floats.AddScaledTo(zPlus, z, o.cfg.Delta, u)

	xPlus := numeric.MatVec(o.phiT, zPlus)
	xBase := numeric.MatVec(o.phiT, z)

	coeff := (o.f(xPlus) - o.f(xBase)) / o.cfg.Delta * float64(o.cfg.ReducedDimension)
	g := make([]float64, len(u))
	floats.ScaleTo(g, coeff, u)

	return gradientEstimate{g: g, u: u, xBase: xBase, xPlus: xPlus}, nil
}

func (o *Optimizer) unitDirection() ([]float64, error) {
	for i := 0; i < maxDirectionDraws; i++ {
		u := o.direction(o.rng, o.cfg.ReducedDimension)
		n := numeric.Norm(u)
		if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			continue
		}
		floats.Scale(1/n, u)
		return u, nil
	}
	return nil, fmt.Errorf("no usable direction after %d draws: %w", maxDirectionDraws, ErrNumericalInstability)
}

// Step performs one optimization step. It returns false without touching any
// state once MaxIterations steps have completed.
func (o *Optimizer) Step() (bool, error) {
	if o.iteration >= o.cfg.MaxIterations {
		return false, nil
	}

	est, err := o.estimateGradient(o.z)
	if err != nil {
		return false, fmt.Errorf("step %d: %w", o.iteration+1, err)
	}
	if !numeric.IsFinite(est.g) {
		return false, fmt.Errorf("step %d: non-finite gradient estimate: %w", o.iteration+1, ErrNumericalInstability)
	}

	gradNorm := numeric.Norm(est.g)
	sqNorm := gradNorm * gradNorm
	sum := o.sqNormSum + sqNorm
	eta := o.cfg.Eta0 / math.Sqrt(1+o.cfg.Beta*sum)

	z := make([]float64, len(o.z))
	floats.AddScaledTo(z, o.z, -eta, est.g)
	x := numeric.MatVec(o.phiT, z)
	fx := o.f(x)
	if math.IsNaN(fx) || math.IsInf(fx, 0) {
		return false, fmt.Errorf("step %d: non-finite objective value: %w", o.iteration+1, ErrNumericalInstability)
	}

	o.sqNorms = append(o.sqNorms, sqNorm)
	o.sqNormSum = sum
	o.gradNorms = append(o.gradNorms, gradNorm)
	o.stepSize = eta
	o.z = z
	o.x = x
	o.history = append(o.history, fx)
	o.iteration++
	return true, nil
}

// Run steps until the iteration budget is spent.
func (o *Optimizer) Run() (Result, error) {
	for {
		ok, err := o.Step()
		if err != nil {
			return Result{}, err
		}
		if !ok {
			break
		}
	}
	return Result{
		Solution: append([]float64(nil), o.x...),
		History:  append([]float64(nil), o.history...),
	}, nil
}

// State returns a snapshot that shares no memory with the optimizer.
func (o *Optimizer) State() State {
	return State{
		ConvergenceHistory: append([]float64(nil), o.history...),
		GradientNorms:      append([]float64(nil), o.gradNorms...),
		Iteration:          o.iteration,
		X:                  append([]float64(nil), o.x...),
		IsRunning:          o.iteration < o.cfg.MaxIterations,
		StepSize:           o.stepSize,
	}
}

// Reset replaces the configuration and starts a new trajectory with a fresh
// projection. An invalid configuration leaves the optimizer unchanged.
func (o *Optimizer) Reset(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.init(cfg)
	return nil
}

func (o *Optimizer) Config() Config { return o.cfg }

func (o *Optimizer) Iteration() int { return o.iteration }

// Current returns a copy of x and its most recent objective value.
func (o *Optimizer) Current() ([]float64, float64) {
	return append([]float64(nil), o.x...), o.history[len(o.history)-1]
}

// SquaredNormSum returns the accumulated Σ‖ĝ‖² used by the step-size rule.
func (o *Optimizer) SquaredNormSum() float64 { return o.sqNormSum }

// SquaredNorms returns a copy of every recorded ‖ĝ‖².
func (o *Optimizer) SquaredNorms() []float64 {
	return append([]float64(nil), o.sqNorms...)
}

// Projection returns copies of Φ and Φᵗ.
func (o *Optimizer) Projection() (phi, phiT *mat.Dense) {
	return mat.DenseCopyOf(o.phi), mat.DenseCopyOf(o.phiT)
}

// ReducedPoint returns a copy of the current reduced-space point z.
func (o *Optimizer) ReducedPoint() []float64 {
	return append([]float64(nil), o.z...)
}

// Reproject maps a reduced-space point back to the original space.
func (o *Optimizer) Reproject(z []float64) []float64 {
	return numeric.MatVec(o.phiT, z)
}
