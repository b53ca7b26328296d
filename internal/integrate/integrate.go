// Package integrate implements an adaptive Runge-Kutta-Fehlberg stepper
// (Cash-Karp 4(5) pair) for systems of ordinary differential equations,
// with support for scheduled state-replacement events. Samples are recorded
// on a fixed output grid; between grid points the step size adapts to the
// requested error tolerances.
package integrate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrStepUnderflow reports that error control drove the step size below
// Options.MinStep. This usually means the system is too stiff for the
// requested tolerances.
var ErrStepUnderflow = errors.New("step size underflow")

// ErrNonFinite reports a NaN or Inf appearing in the state or derivative
// vector during stepping.
var ErrNonFinite = errors.New("non-finite value during integration")

// Func evaluates the derivative vector at (t, y). It must not retain or
// mutate y.
type Func func(t float64, y []float64) ([]float64, error)

// Event overwrites one state component with a fixed value when simulated
// time reaches Time. Replace semantics: the previous value is discarded.
type Event struct {
	Index int
	Time  float64
	Value float64
}

// Options controls error tolerances and step bounds. Zero values fall back
// to defaults.
type Options struct {
	AbsTol  float64 // default 1e-6
	RelTol  float64 // default 1e-6
	MinStep float64 // default 1e-12; going below fails with ErrStepUnderflow
	MaxStep float64 // default: the output grid spacing
}

func (o Options) withDefaults(sampleStep float64) Options {
	if o.AbsTol <= 0 {
		o.AbsTol = 1e-6
	}
	if o.RelTol <= 0 {
		o.RelTol = 1e-6
	}
	if o.MinStep <= 0 {
		o.MinStep = 1e-12
	}
	if o.MaxStep <= 0 {
		o.MaxStep = sampleStep
	}
	return o
}

// Point is one trajectory sample.
type Point struct {
	T float64
	Y []float64
}

// Solve integrates y' = f(t, y) from t0 to t1, recording a sample at every
// multiple of sampleStep (plus t1 if the horizon is not a whole number of
// steps). Events are applied when time reaches their timestamps: equal-time
// events keep table order and are applied in sequence, so the last row wins.
// Event times are expected to lie on the sample grid; each event fires at
// the first grid point at or after its timestamp.
func Solve(ctx context.Context, f Func, y0 []float64, t0, t1, sampleStep float64, events []Event, opts Options) ([]Point, error) {
	if !(sampleStep > 0) {
		return nil, fmt.Errorf("integrate: sample step must be > 0, got %v", sampleStep)
	}
	if t1 < t0 {
		return nil, fmt.Errorf("integrate: horizon %v precedes start %v", t1, t0)
	}
	opts = opts.withDefaults(sampleStep)

	// Stable sort by time keeps table order for equal timestamps, which is
	// what gives overlapping perturbations last-applied-wins semantics.
	pending := make([]Event, len(events))
	copy(pending, events)
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].Time < pending[j].Time })

	y := make([]float64, len(y0))
	copy(y, y0)

	nSamples := int(math.Ceil((t1-t0)/sampleStep - 1e-9))
	out := make([]Point, 0, nSamples+1)
	t := t0

	// Grid-time tolerance for matching event timestamps.
	tol := sampleStep * 1e-9

	apply := func(now float64) {
		for len(pending) > 0 && pending[0].Time <= now+tol {
			ev := pending[0]
			pending = pending[1:]
			if ev.Index >= 0 && ev.Index < len(y) {
				y[ev.Index] = ev.Value
			}
		}
	}

	apply(t)
	out = append(out, Point{T: t, Y: snapshot(y)})

	for i := 1; i <= nSamples; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := t0 + float64(i)*sampleStep
		if next > t1 {
			next = t1
		}
		if err := advance(f, y, t, next, opts); err != nil {
			return nil, err
		}
		t = next

		apply(t)
		out = append(out, Point{T: t, Y: snapshot(y)})
	}

	return out, nil
}

// advance integrates y in place from t to t1 with adaptive Cash-Karp steps.
func advance(f Func, y []float64, t, t1 float64, opts Options) error {
	h := opts.MaxStep
	for t < t1 {
		if h > t1-t {
			h = t1 - t
		}

		yNew, errNorm, err := ckStep(f, t, y, h)
		if err != nil {
			return err
		}

		scale := maxErrorRatio(y, yNew, errNorm, opts)
		if scale <= 1 {
			// Accept.
			copy(y, yNew)
			t += h
			if !finite(y) {
				return fmt.Errorf("integrate: state at t=%v: %w", t, ErrNonFinite)
			}
			// Grow conservatively for the next step.
			h *= math.Min(5, 0.9*math.Pow(scale+1e-300, -0.2))
			if h > opts.MaxStep {
				h = opts.MaxStep
			}
		} else {
			// Reject and shrink. Underflow is only checked here: an
			// accepted step clamped to a tiny t1-t remainder is fine.
			h *= math.Max(0.2, 0.9*math.Pow(scale, -0.25))
			if h < opts.MinStep {
				return fmt.Errorf("integrate: at t=%v: %w (h=%v)", t, ErrStepUnderflow, h)
			}
		}
	}
	return nil
}

// Cash-Karp tableau.
var (
	ckC  = [6]float64{0, 1.0 / 5, 3.0 / 10, 3.0 / 5, 1, 7.0 / 8}
	ckB5 = [6]float64{37.0 / 378, 0, 250.0 / 621, 125.0 / 594, 0, 512.0 / 1771}
	ckB4 = [6]float64{2825.0 / 27648, 0, 18575.0 / 48384, 13525.0 / 55296, 277.0 / 14336, 1.0 / 4}
	ckA  = [6][5]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{3.0 / 10, -9.0 / 10, 6.0 / 5},
		{-11.0 / 54, 5.0 / 2, -70.0 / 27, 35.0 / 27},
		{1631.0 / 55296, 175.0 / 512, 575.0 / 13824, 44275.0 / 110592, 253.0 / 4096},
	}
)

// ckStep performs one Cash-Karp step of size h from (t, y). It returns the
// fifth-order solution and the per-component embedded error estimate.
func ckStep(f Func, t float64, y []float64, h float64) (yNew, errEst []float64, err error) {
	n := len(y)
	var k [6][]float64
	stage := make([]float64, n)

	for s := 0; s < 6; s++ {
		for i := 0; i < n; i++ {
			acc := y[i]
			for j := 0; j < s; j++ {
				acc += h * ckA[s][j] * k[j][i]
			}
			stage[i] = acc
		}
		d, ferr := f(t+ckC[s]*h, stage)
		if ferr != nil {
			return nil, nil, ferr
		}
		if len(d) != n {
			return nil, nil, fmt.Errorf("integrate: derivative length %d, state length %d", len(d), n)
		}
		if !finite(d) {
			return nil, nil, fmt.Errorf("integrate: derivative at t=%v: %w", t+ckC[s]*h, ErrNonFinite)
		}
		k[s] = snapshot(d)
	}

	yNew = make([]float64, n)
	errEst = make([]float64, n)
	for i := 0; i < n; i++ {
		var sum5, sum4 float64
		for s := 0; s < 6; s++ {
			sum5 += ckB5[s] * k[s][i]
			sum4 += ckB4[s] * k[s][i]
		}
		yNew[i] = y[i] + h*sum5
		errEst[i] = h * (sum5 - sum4)
	}
	return yNew, errEst, nil
}

// maxErrorRatio returns the largest component-wise error over its tolerance.
// A value at or below 1 means the step is acceptable.
func maxErrorRatio(y, yNew, errEst []float64, opts Options) float64 {
	worst := 0.0
	for i := range errEst {
		sc := opts.AbsTol + opts.RelTol*math.Max(math.Abs(y[i]), math.Abs(yNew[i]))
		r := math.Abs(errEst[i]) / sc
		if r > worst {
			worst = r
		}
	}
	return worst
}

func snapshot(y []float64) []float64 {
	out := make([]float64, len(y))
	copy(out, y)
	return out
}

func finite(y []float64) bool {
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
