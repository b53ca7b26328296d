// Package squad implements the SQUAD transform: the standardized sigmoidal
// rate function that maps a node's fuzzy-logic input weight to a continuous
// rate of change. The curve is a logistic centered at w = 0.5, normalized so
// the rate term is exactly 0 at w = 0 and exactly 1 at w = 1, minus a linear
// self-degradation term.
package squad

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter reports a shape or grid parameter outside its domain.
var ErrInvalidParameter = errors.New("invalid parameter")

// ErrNumericInstability reports a non-finite value produced during
// derivative evaluation. The transform clamps exponent arguments, so this
// should not occur for steepness values used in practice.
var ErrNumericInstability = errors.New("numeric instability")

// maxExpArg caps arguments fed to math.Exp. exp(700) is still finite in
// float64; anything much larger overflows to +Inf.
const maxExpArg = 700.0

// Params holds the two shape parameters shared by every node in a run.
type Params struct {
	// H controls sigmoid steepness. Must be strictly positive: the
	// normalization denominator vanishes as H approaches zero.
	H float64

	// Gamma is the linear self-degradation rate. Must be non-negative.
	Gamma float64
}

// Validate checks the parameter domain.
func (p Params) Validate() error {
	if !(p.H > 0) {
		return fmt.Errorf("%w: h must be > 0, got %v", ErrInvalidParameter, p.H)
	}
	if p.Gamma < 0 || math.IsNaN(p.Gamma) {
		return fmt.Errorf("%w: gamma must be >= 0, got %v", ErrInvalidParameter, p.Gamma)
	}
	return nil
}

// Rate returns the instantaneous derivative for a node with current
// activation x and combined input weight w:
//
//	(-exp(h/2) + exp(-h*(w-0.5))) / ((1 - exp(h/2)) * (1 + exp(-h*(w-0.5)))) - gamma*x
//
// evaluated in a rearranged form that stays finite for large h: with
// s = logistic(h*(w-0.5)), the sigmoid term equals
// (1 - s*(1 + exp(h/2))) / (1 - exp(h/2)), which never forms the
// exp(-h*(w-0.5)) factor directly.
//
// Precondition: p.H > 0 (see Params.Validate). Callers must enforce it;
// Rate does not re-validate on every evaluation.
func Rate(x, w float64, p Params) float64 {
	a := 0.5 * p.H
	if a > maxExpArg {
		a = maxExpArg
	}
	e := math.Exp(a)
	s := logistic(p.H * (w - 0.5))
	return (1-s*(1+e))/(1-e) - p.Gamma*x
}

// logistic evaluates 1/(1+exp(-z)) without overflowing for large |z|.
func logistic(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
