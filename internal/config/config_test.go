package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing scenario: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeScenario(t, `
name: bistable
rules:
  A: "AND(NOT(B), OR(A, X))"
  B: "AND(NOT(A), OR(B, Y))"
  X: ""
  Y: ""
initial:
  A: 0
  B: 0
  X: 0
  Y: 0
h: 20
gamma: 0.5
horizon: 40
step_size: 0.05
tolerances:
  abs: 1e-8
  rel: 1e-8
perturbations:
  - node: X
    at: 10
    steps: 20
    value: 1
`)

	s, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if s.Name != "bistable" || s.H != 20 || s.Gamma != 0.5 {
		t.Errorf("parsed scenario: %+v", s)
	}
	if s.Rules["A"] != "AND(NOT(B), OR(A, X))" {
		t.Errorf("rule A = %q", s.Rules["A"])
	}
	if s.Rules["X"] != "" {
		t.Errorf("rule X = %q, want empty input rule", s.Rules["X"])
	}
	if len(s.Perturbations) != 1 || s.Perturbations[0].Node != "X" || s.Perturbations[0].Steps != 20 {
		t.Errorf("perturbations = %+v", s.Perturbations)
	}
}

func TestLoadFromFile_KeepsDefaultsForOmittedFields(t *testing.T) {
	path := writeScenario(t, `
rules:
  A: ""
`)
	s, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	def := Default()
	if s.H != def.H || s.Gamma != def.Gamma || s.StepSize != def.StepSize {
		t.Errorf("defaults not preserved: %+v", s)
	}
	if s.Tolerances != def.Tolerances {
		t.Errorf("tolerances = %+v, want %+v", s.Tolerances, def.Tolerances)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("SQUADSIM_H", "55")
	t.Setenv("SQUADSIM_STEP_SIZE", "0.25")

	path := writeScenario(t, `
rules:
  A: ""
h: 10
`)
	s, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if s.H != 55 {
		t.Errorf("H = %v, want env override 55", s.H)
	}
	if s.StepSize != 0.25 {
		t.Errorf("StepSize = %v, want env override 0.25", s.StepSize)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Scenario {
		s := Default()
		s.Rules = map[string]string{"A": "", "B": "NOT(A)"}
		return s
	}

	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"no rules", func(s *Scenario) { s.Rules = nil }},
		{"zero h", func(s *Scenario) { s.H = 0 }},
		{"negative gamma", func(s *Scenario) { s.Gamma = -1 }},
		{"zero step", func(s *Scenario) { s.StepSize = 0 }},
		{"negative horizon", func(s *Scenario) { s.Horizon = -1 }},
		{"negative tolerance", func(s *Scenario) { s.Tolerances.Abs = -1 }},
		{"perturbation without node", func(s *Scenario) {
			s.Perturbations = []Perturbation{{At: 1, Steps: 1, Value: 1}}
		}},
		{"perturbation on unknown node", func(s *Scenario) {
			s.Perturbations = []Perturbation{{Node: "GHOST", At: 1, Steps: 1, Value: 1}}
		}},
		{"negative perturbation steps", func(s *Scenario) {
			s.Perturbations = []Perturbation{{Node: "A", At: 1, Steps: -1, Value: 1}}
		}},
		{"initial for unknown node", func(s *Scenario) {
			s.Initial = map[string]float64{"GHOST": 0.5}
		}},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("baseline scenario invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestDemo_IsValid(t *testing.T) {
	s := Demo()
	if err := s.Validate(); err != nil {
		t.Fatalf("demo scenario invalid: %v", err)
	}
	if s.Name == "" {
		t.Error("demo scenario unnamed")
	}
	if len(s.Rules) != 5 {
		t.Errorf("demo has %d rules, want 5", len(s.Rules))
	}
}
