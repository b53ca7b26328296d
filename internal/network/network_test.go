package network

import (
	"errors"
	"math"
	"testing"

	"github.com/nvandessel/squadsim/internal/logic"
	"github.com/nvandessel/squadsim/internal/squad"
)

// toggleRules is the two-node mutual-inhibition switch used across tests.
func toggleRules() map[string]logic.Expr {
	return map[string]logic.Expr{
		"A": logic.MustParse("AND(NOT(B), OR(A, X))"),
		"B": logic.MustParse("AND(NOT(A), OR(B, Y))"),
		"X": nil,
		"Y": nil,
	}
}

func TestNew_RejectsUnknownReference(t *testing.T) {
	rules := map[string]logic.Expr{
		"A": logic.MustParse("NOT(GHOST)"),
	}
	_, err := New(rules)
	if !errors.Is(err, logic.ErrMissingNode) {
		t.Fatalf("expected ErrMissingNode, got %v", err)
	}
}

func TestNew_RejectsEmptyTopology(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for empty topology")
	}
}

func TestNodes_SortedAndCopied(t *testing.T) {
	m, err := New(toggleRules())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	nodes := m.Nodes()
	want := []string{"A", "B", "X", "Y"}
	for i, name := range want {
		if nodes[i] != name {
			t.Fatalf("Nodes() = %v, want %v", nodes, want)
		}
	}

	nodes[0] = "mutated"
	if m.Nodes()[0] != "A" {
		t.Error("Nodes() returned a shared slice")
	}
}

func TestRule(t *testing.T) {
	m, err := New(toggleRules())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if rule, ok := m.Rule("A"); !ok || rule != "AND(NOT(B), OR(A, X))" {
		t.Errorf("Rule(A) = %q, %v", rule, ok)
	}
	if rule, ok := m.Rule("X"); !ok || rule != "" {
		t.Errorf("Rule(X) = %q, %v, want empty input rule", rule, ok)
	}
	if _, ok := m.Rule("GHOST"); ok {
		t.Error("Rule(GHOST) reported existing node")
	}
}

func TestDerivatives_MissingStateNode(t *testing.T) {
	m, err := New(toggleRules())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state := map[string]float64{"A": 0, "B": 0, "X": 0} // Y absent
	_, err = m.Derivatives(state, squad.Params{H: 10, Gamma: 1})
	if !errors.Is(err, logic.ErrMissingNode) {
		t.Fatalf("expected ErrMissingNode, got %v", err)
	}
}

func TestDerivatives_InputNodesDecay(t *testing.T) {
	m, err := New(toggleRules())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state := map[string]float64{"A": 0, "B": 0, "X": 0.8, "Y": 0}
	p := squad.Params{H: 10, Gamma: 1}
	derivs, err := m.Derivatives(state, p)
	if err != nil {
		t.Fatalf("Derivatives: %v", err)
	}

	// Unregulated input with w=0: pure decay -gamma*x.
	if got, want := derivs["X"], -0.8; math.Abs(got-want) > 1e-12 {
		t.Errorf("dX = %v, want %v", got, want)
	}
	if got := derivs["Y"]; math.Abs(got) > 1e-12 {
		t.Errorf("dY = %v, want 0", got)
	}
}

func TestDerivatives_MatchesManualEvaluation(t *testing.T) {
	m, err := New(toggleRules())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state := map[string]float64{"A": 0.3, "B": 0.6, "X": 0.9, "Y": 0.1}
	p := squad.Params{H: 10, Gamma: 1}

	derivs, err := m.Derivatives(state, p)
	if err != nil {
		t.Fatalf("Derivatives: %v", err)
	}

	// wA = min(1-B, max(A, X)) = min(0.4, 0.9) = 0.4
	wantA := squad.Rate(0.3, 0.4, p)
	if math.Abs(derivs["A"]-wantA) > 1e-12 {
		t.Errorf("dA = %v, want %v", derivs["A"], wantA)
	}

	// wB = min(1-A, max(B, Y)) = min(0.7, 0.6) = 0.6
	wantB := squad.Rate(0.6, 0.6, p)
	if math.Abs(derivs["B"]-wantB) > 1e-12 {
		t.Errorf("dB = %v, want %v", derivs["B"], wantB)
	}
}

func TestDerivatives_PureAndIdempotent(t *testing.T) {
	m, err := New(toggleRules())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state := map[string]float64{"A": 0.3, "B": 0.6, "X": 0.9, "Y": 0.1}
	p := squad.Params{H: 50, Gamma: 0.7}

	first, err := m.Derivatives(state, p)
	if err != nil {
		t.Fatalf("Derivatives: %v", err)
	}
	second, err := m.Derivatives(state, p)
	if err != nil {
		t.Fatalf("Derivatives: %v", err)
	}

	for name, v := range first {
		if second[name] != v {
			t.Errorf("node %s: repeated evaluation changed: %v != %v", name, v, second[name])
		}
	}

	// Input state must be untouched.
	if state["A"] != 0.3 || state["B"] != 0.6 || state["X"] != 0.9 || state["Y"] != 0.1 {
		t.Errorf("Derivatives mutated input state: %v", state)
	}
}
