// Package sim drives a network model through the numerical integrator. Its
// only real work is wiring: it fixes a node ordering, adapts the model's
// map-based derivative evaluation to the integrator's positional form,
// translates the event table, and collects the sampled trajectory.
package sim

import (
	"context"
	"fmt"

	"github.com/nvandessel/squadsim/internal/integrate"
	"github.com/nvandessel/squadsim/internal/logic"
	"github.com/nvandessel/squadsim/internal/network"
	"github.com/nvandessel/squadsim/internal/perturb"
	"github.com/nvandessel/squadsim/internal/squad"
)

// RunSpec describes one simulation run. Each run owns its own initial state
// and event table; the model itself is read-only and reusable.
type RunSpec struct {
	Model    *network.Model
	Initial  map[string]float64 // must cover every model node
	Params   squad.Params
	Horizon  float64 // integrate over [0, Horizon]
	StepSize float64 // output grid spacing; event times align to it
	Events   []perturb.Event
	Options  integrate.Options
}

// Trajectory is the recorded time series of all node activations. Values is
// indexed [sample][node], with node order given by Nodes. Read-only once
// produced.
type Trajectory struct {
	Nodes  []string
	Times  []float64
	Values [][]float64
}

// Len returns the number of samples.
func (tr *Trajectory) Len() int { return len(tr.Times) }

// Column returns the time series for one node. The second return reports
// whether the node exists.
func (tr *Trajectory) Column(node string) ([]float64, bool) {
	for j, name := range tr.Nodes {
		if name != node {
			continue
		}
		out := make([]float64, len(tr.Values))
		for i, row := range tr.Values {
			out[i] = row[j]
		}
		return out, true
	}
	return nil, false
}

// At returns the state vector of sample i as a mapping.
func (tr *Trajectory) At(i int) map[string]float64 {
	state := make(map[string]float64, len(tr.Nodes))
	for j, name := range tr.Nodes {
		state[name] = tr.Values[i][j]
	}
	return state
}

// Final returns the last sampled state vector.
func (tr *Trajectory) Final() map[string]float64 {
	return tr.At(len(tr.Times) - 1)
}

// Run validates the RunSpec eagerly, then integrates and returns the
// trajectory. Numerical failures inside the integrator (step-size
// underflow, non-finite values) propagate unchanged.
func Run(ctx context.Context, spec RunSpec) (*Trajectory, error) {
	if spec.Model == nil {
		return nil, fmt.Errorf("sim: model required")
	}
	if err := spec.Params.Validate(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	if !(spec.StepSize > 0) {
		return nil, fmt.Errorf("sim: %w: step size must be > 0, got %v", squad.ErrInvalidParameter, spec.StepSize)
	}
	if !(spec.Horizon >= 0) {
		return nil, fmt.Errorf("sim: %w: horizon must be >= 0, got %v", squad.ErrInvalidParameter, spec.Horizon)
	}

	nodes := spec.Model.Nodes()
	index := make(map[string]int, len(nodes))
	y0 := make([]float64, len(nodes))
	for j, name := range nodes {
		v, ok := spec.Initial[name]
		if !ok {
			return nil, fmt.Errorf("sim: initial state: %w: %s", logic.ErrMissingNode, name)
		}
		index[name] = j
		y0[j] = v
	}

	events := make([]integrate.Event, len(spec.Events))
	for i, ev := range spec.Events {
		j, ok := index[ev.Node]
		if !ok {
			return nil, fmt.Errorf("sim: perturbation target: %w: %s", logic.ErrMissingNode, ev.Node)
		}
		events[i] = integrate.Event{Index: j, Time: ev.Time, Value: ev.Value}
	}

	// The state map is rebuilt in place on every derivative call; the model
	// never retains it.
	state := make(map[string]float64, len(nodes))
	f := func(t float64, y []float64) ([]float64, error) {
		for j, name := range nodes {
			state[name] = y[j]
		}
		derivs, err := spec.Model.Derivatives(state, spec.Params)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(nodes))
		for j, name := range nodes {
			out[j] = derivs[name]
		}
		return out, nil
	}

	points, err := integrate.Solve(ctx, f, y0, 0, spec.Horizon, spec.StepSize, events, spec.Options)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	tr := &Trajectory{
		Nodes:  nodes,
		Times:  make([]float64, len(points)),
		Values: make([][]float64, len(points)),
	}
	for i, p := range points {
		tr.Times[i] = p.T
		tr.Values[i] = p.Y
	}
	return tr, nil
}
