// Package config provides scenario loading for squadsim. A scenario is a
// YAML document describing one complete simulation: topology rules, initial
// activations, shape parameters, time grid, tolerances and perturbations.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Scenario is the on-disk description of a simulation run.
type Scenario struct {
	// Name labels the run in the store and on plots.
	Name string `yaml:"name"`

	// Rules maps each node to its fuzzy-logic rule in AND/OR/NOT text form.
	// An empty rule marks an unregulated input node (constant weight 0).
	Rules map[string]string `yaml:"rules"`

	// Initial holds per-node starting activations. Nodes named in Rules but
	// absent here default to 0.
	Initial map[string]float64 `yaml:"initial"`

	// H is the sigmoid steepness shared by all nodes. Must be > 0.
	H float64 `yaml:"h"`

	// Gamma is the shared self-degradation rate. Must be >= 0.
	Gamma float64 `yaml:"gamma"`

	// Horizon is the end of the simulated interval [0, Horizon].
	Horizon float64 `yaml:"horizon"`

	// StepSize is the output grid spacing; perturbation windows are
	// expressed in steps of this size.
	StepSize float64 `yaml:"step_size"`

	// Tolerances controls the integrator's adaptive error test.
	Tolerances Tolerances `yaml:"tolerances"`

	// Perturbations lists the forced-value windows applied during the run.
	Perturbations []Perturbation `yaml:"perturbations"`
}

// Tolerances holds the integrator's absolute and relative error bounds.
type Tolerances struct {
	Abs float64 `yaml:"abs"`
	Rel float64 `yaml:"rel"`
}

// Perturbation is one forced-value window in scenario form.
type Perturbation struct {
	Node  string  `yaml:"node"`
	At    float64 `yaml:"at"`
	Steps int     `yaml:"steps"`
	Value float64 `yaml:"value"`
}

// Default returns a scenario skeleton with the standard shape parameters
// and time grid. Rules and initial state are left for the caller.
func Default() *Scenario {
	return &Scenario{
		H:        10,
		Gamma:    1,
		Horizon:  30,
		StepSize: 0.1,
		Tolerances: Tolerances{
			Abs: 1e-6,
			Rel: 1e-6,
		},
	}
}

// Demo returns the built-in five-node toggle-switch scenario: inputs X and
// Y, mutually inhibiting latches A and B, readout Z. A pulse on X then Y
// settles differently from Y then X.
func Demo() *Scenario {
	s := Default()
	s.Name = "toggle-switch"
	s.Rules = map[string]string{
		"A": "AND(NOT(B), OR(A, X))",
		"B": "AND(NOT(A), OR(B, Y))",
		"X": "",
		"Y": "",
		"Z": "OR(A, B)",
	}
	s.Initial = map[string]float64{"A": 0, "B": 0, "X": 0, "Y": 0, "Z": 0}
	s.Perturbations = []Perturbation{
		{Node: "X", At: 10, Steps: 30, Value: 1},
		{Node: "Y", At: 20, Steps: 30, Value: 1},
	}
	return s
}

// LoadFromFile reads a scenario from a YAML file, overlaying it on the
// defaults, then applies environment overrides.
func LoadFromFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing scenario file: %w", err)
	}

	applyEnvOverrides(s)
	return s, nil
}

// Validate checks the scenario against the parameter domain. It does not
// parse rules; rule syntax errors surface when the model is built.
func (s *Scenario) Validate() error {
	if len(s.Rules) == 0 {
		return fmt.Errorf("scenario needs at least one node rule")
	}
	if !(s.H > 0) {
		return fmt.Errorf("h must be > 0, got %v", s.H)
	}
	if s.Gamma < 0 {
		return fmt.Errorf("gamma must be >= 0, got %v", s.Gamma)
	}
	if !(s.StepSize > 0) {
		return fmt.Errorf("step_size must be > 0, got %v", s.StepSize)
	}
	if s.Horizon < 0 {
		return fmt.Errorf("horizon must be >= 0, got %v", s.Horizon)
	}
	if s.Tolerances.Abs < 0 || s.Tolerances.Rel < 0 {
		return fmt.Errorf("tolerances must be >= 0, got abs=%v rel=%v", s.Tolerances.Abs, s.Tolerances.Rel)
	}
	for i, p := range s.Perturbations {
		if p.Node == "" {
			return fmt.Errorf("perturbation %d: node required", i)
		}
		if _, ok := s.Rules[p.Node]; !ok {
			return fmt.Errorf("perturbation %d: unknown node %s", i, p.Node)
		}
		if p.Steps < 0 {
			return fmt.Errorf("perturbation %d: steps must be >= 0, got %d", i, p.Steps)
		}
	}
	for name := range s.Initial {
		if _, ok := s.Rules[name]; !ok {
			return fmt.Errorf("initial state: unknown node %s", name)
		}
	}
	return nil
}

// applyEnvOverrides applies SQUADSIM_* environment overrides to the grid
// and shape parameters. Rules and perturbations come only from the file.
func applyEnvOverrides(s *Scenario) {
	if v := os.Getenv("SQUADSIM_H"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.H = f
		}
	}
	if v := os.Getenv("SQUADSIM_GAMMA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.Gamma = f
		}
	}
	if v := os.Getenv("SQUADSIM_HORIZON"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.Horizon = f
		}
	}
	if v := os.Getenv("SQUADSIM_STEP_SIZE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.StepSize = f
		}
	}
}
