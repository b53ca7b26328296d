// Package network holds the fixed topology of a regulatory network and
// evaluates the coupled system's derivative vector. Each node owns one
// fuzzy-logic expression over other nodes' activations; a node with no
// expression is an unregulated input whose weight is constant 0, so it
// decays toward zero unless an external perturbation forces it.
package network

import (
	"fmt"
	"math"
	"sort"

	"github.com/nvandessel/squadsim/internal/logic"
	"github.com/nvandessel/squadsim/internal/squad"
)

// Model is an immutable network topology. It holds no run-specific state
// and is safe to share across concurrent simulation runs.
type Model struct {
	rules map[string]logic.Expr
	names []string
}

// New builds a model from a rule set. A nil expression marks an unregulated
// input node. Every node name referenced by any rule must itself be a node
// of the network; a rule referencing an unknown name fails with
// logic.ErrMissingNode.
func New(rules map[string]logic.Expr) (*Model, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("network: at least one node required")
	}

	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for ref := range logic.Refs(rules[name]) {
			if _, ok := rules[ref]; !ok {
				return nil, fmt.Errorf("network: rule for %s: %w: %s", name, logic.ErrMissingNode, ref)
			}
		}
	}

	copied := make(map[string]logic.Expr, len(rules))
	for name, expr := range rules {
		copied[name] = expr
	}
	return &Model{rules: copied, names: names}, nil
}

// Nodes returns the node names in lexical order. The returned slice is a
// copy; the model's ordering is fixed for its lifetime.
func (m *Model) Nodes() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Rule returns the textual form of a node's rule, or "" for an unregulated
// input node. The second return reports whether the node exists.
func (m *Model) Rule(name string) (string, bool) {
	expr, ok := m.rules[name]
	if !ok {
		return "", false
	}
	if expr == nil {
		return "", true
	}
	return expr.String(), true
}

// Weight evaluates one node's fuzzy input weight against the state vector.
func (m *Model) Weight(name string, state map[string]float64) (float64, error) {
	expr, ok := m.rules[name]
	if !ok {
		return 0, fmt.Errorf("network: %w: %s", logic.ErrMissingNode, name)
	}
	if expr == nil {
		return 0, nil
	}
	return expr.Eval(state)
}

// Derivatives evaluates the full derivative vector at the given state.
// Every model node must be present in state; the input map is read-only
// and the result is a freshly allocated map over the same node set.
// The evaluation is deterministic: identical inputs give identical outputs.
func (m *Model) Derivatives(state map[string]float64, p squad.Params) (map[string]float64, error) {
	out := make(map[string]float64, len(m.names))
	for _, name := range m.names {
		x, ok := state[name]
		if !ok {
			return nil, fmt.Errorf("network: state vector: %w: %s", logic.ErrMissingNode, name)
		}
		w, err := m.Weight(name, state)
		if err != nil {
			return nil, fmt.Errorf("network: weight for %s: %w", name, err)
		}
		d := squad.Rate(x, w, p)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("network: derivative for %s (x=%v, w=%v): %w", name, x, w, squad.ErrNumericInstability)
		}
		out[name] = d
	}
	return out, nil
}
