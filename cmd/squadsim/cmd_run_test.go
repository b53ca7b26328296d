package main

import (
	"context"
	"testing"

	"github.com/nvandessel/squadsim/internal/config"
	"github.com/nvandessel/squadsim/internal/sim"
)

func TestBuildRunSpec_Demo(t *testing.T) {
	scenario := config.Demo()
	spec, err := buildRunSpec(scenario)
	if err != nil {
		t.Fatalf("buildRunSpec: %v", err)
	}

	nodes := spec.Model.Nodes()
	if len(nodes) != 5 {
		t.Fatalf("demo model has %d nodes, want 5", len(nodes))
	}
	if len(spec.Initial) != 5 {
		t.Errorf("initial state covers %d nodes, want 5", len(spec.Initial))
	}

	// Two perturbations of 30 steps each expand to 31 rows apiece.
	if len(spec.Events) != 62 {
		t.Errorf("event table has %d rows, want 62", len(spec.Events))
	}
}

func TestBuildRunSpec_BadRule(t *testing.T) {
	scenario := config.Default()
	scenario.Rules = map[string]string{"A": "AND(A"}
	if _, err := buildRunSpec(scenario); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestBuildRunSpec_DefaultsInitialToZero(t *testing.T) {
	scenario := config.Default()
	scenario.Rules = map[string]string{"A": "NOT(B)", "B": ""}
	// No initial block at all.

	spec, err := buildRunSpec(scenario)
	if err != nil {
		t.Fatalf("buildRunSpec: %v", err)
	}
	if spec.Initial["A"] != 0 || spec.Initial["B"] != 0 {
		t.Errorf("initial = %v, want zeros", spec.Initial)
	}

	// Defaulted initials must still produce a runnable RunSpec.
	if _, err := sim.Run(context.Background(), spec); err != nil {
		t.Fatalf("sim.Run: %v", err)
	}
}

func TestDemoScenario_EndToEnd(t *testing.T) {
	spec, err := buildRunSpec(config.Demo())
	if err != nil {
		t.Fatalf("buildRunSpec: %v", err)
	}

	tr, err := sim.Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("sim.Run: %v", err)
	}

	final := tr.Final()
	// The demo pulses X first, so A latches and suppresses B.
	if final["A"] < 0.9 {
		t.Errorf("final A = %v, want latched high", final["A"])
	}
	if final["B"] > 0.1 {
		t.Errorf("final B = %v, want suppressed", final["B"])
	}
	if final["Z"] < 0.9 {
		t.Errorf("final Z = %v, want high readout", final["Z"])
	}
}
