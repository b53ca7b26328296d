// Package logic provides the fuzzy-logic expression trees that define a
// regulatory network's topology. Boolean AND, OR and NOT are relaxed to
// min, max and 1-x over continuous activations in [0,1], so a rule written
// against Boolean species evaluates smoothly against the live state vector.
package logic

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingNode reports a reference to a node name that is absent from the
// state vector (or, at model construction, from the topology).
var ErrMissingNode = errors.New("missing node")

// Expr is one fuzzy-logic expression over node activations.
type Expr interface {
	// Eval resolves node references from state and returns the combined
	// input weight. Unknown references fail with ErrMissingNode.
	Eval(state map[string]float64) (float64, error)

	// String renders the expression in the canonical AND/OR/NOT form
	// accepted by Parse.
	String() string

	// refs records every node name the expression mentions.
	refs(set map[string]struct{})
}

// Ref returns an expression that reads the named node's activation.
func Ref(name string) Expr { return ref(name) }

// Not returns the fuzzy complement 1 - x.
func Not(x Expr) Expr { return not{x} }

// And returns the fuzzy conjunction min(xs...). Requires at least one operand.
func And(xs ...Expr) Expr { return and(xs) }

// Or returns the fuzzy disjunction max(xs...). Requires at least one operand.
func Or(xs ...Expr) Expr { return or(xs) }

// Refs returns the set of node names referenced by e. A nil expression
// references nothing.
func Refs(e Expr) map[string]struct{} {
	set := make(map[string]struct{})
	if e != nil {
		e.refs(set)
	}
	return set
}

type ref string

func (r ref) Eval(state map[string]float64) (float64, error) {
	v, ok := state[string(r)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingNode, string(r))
	}
	return v, nil
}

func (r ref) String() string { return string(r) }

func (r ref) refs(set map[string]struct{}) { set[string(r)] = struct{}{} }

type not struct{ x Expr }

func (n not) Eval(state map[string]float64) (float64, error) {
	v, err := n.x.Eval(state)
	if err != nil {
		return 0, err
	}
	return 1 - v, nil
}

func (n not) String() string { return "NOT(" + n.x.String() + ")" }

func (n not) refs(set map[string]struct{}) { n.x.refs(set) }

type and []Expr

func (a and) Eval(state map[string]float64) (float64, error) {
	return fold(a, state, func(acc, v float64) float64 {
		if v < acc {
			return v
		}
		return acc
	})
}

func (a and) String() string { return render("AND", a) }

func (a and) refs(set map[string]struct{}) {
	for _, x := range a {
		x.refs(set)
	}
}

type or []Expr

func (o or) Eval(state map[string]float64) (float64, error) {
	return fold(o, state, func(acc, v float64) float64 {
		if v > acc {
			return v
		}
		return acc
	})
}

func (o or) String() string { return render("OR", o) }

func (o or) refs(set map[string]struct{}) {
	for _, x := range o {
		x.refs(set)
	}
}

func fold(xs []Expr, state map[string]float64, combine func(acc, v float64) float64) (float64, error) {
	if len(xs) == 0 {
		return 0, errors.New("combinator requires at least one operand")
	}
	acc, err := xs[0].Eval(state)
	if err != nil {
		return 0, err
	}
	for _, x := range xs[1:] {
		v, err := x.Eval(state)
		if err != nil {
			return 0, err
		}
		acc = combine(acc, v)
	}
	return acc, nil
}

func render(op string, xs []Expr) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = x.String()
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}
