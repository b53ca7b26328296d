// Package perturb translates coarse perturbation intents into the flat
// event table consumed by the integrator. A perturbation forces one node to
// a fixed value over a window of integration steps; the table holds one row
// per grid point in that window, endpoints inclusive.
package perturb

import (
	"errors"
	"fmt"
)

// ErrInvalidPerturbation reports malformed perturbation input: mismatched
// parallel list lengths or a negative duration.
var ErrInvalidPerturbation = errors.New("invalid perturbation")

// ErrInvalidStepSize reports a non-positive step size.
var ErrInvalidStepSize = errors.New("invalid parameter: step size must be > 0")

// Spec is one forced-value intent: hold Node at Value from time At for
// Steps integration steps. Steps = 0 forces the value at At only.
type Spec struct {
	Node  string
	At    float64
	Steps int
	Value float64
}

// Event is one row of the event table: at Time, overwrite Node's activation
// with Value. The overwrite is a direct substitution, not a blended forcing.
type Event struct {
	Node  string
	Time  float64
	Value float64
}

// FromLists assembles specs from the four parallel input lists. All lists
// must share one length and durations must be non-negative.
func FromLists(nodes []string, atTimes []float64, durations []int, values []float64) ([]Spec, error) {
	n := len(nodes)
	if len(atTimes) != n || len(durations) != n || len(values) != n {
		return nil, fmt.Errorf("%w: parallel list lengths differ (nodes=%d, at_times=%d, durations=%d, intensities=%d)",
			ErrInvalidPerturbation, n, len(atTimes), len(durations), len(values))
	}

	specs := make([]Spec, n)
	for i := range nodes {
		if durations[i] < 0 {
			return nil, fmt.Errorf("%w: duration for %s is negative (%d)", ErrInvalidPerturbation, nodes[i], durations[i])
		}
		specs[i] = Spec{
			Node:  nodes[i],
			At:    atTimes[i],
			Steps: durations[i],
			Value: values[i],
		}
	}
	return specs, nil
}

// BuildTable expands each spec into one event per grid point of its window
// [At, At + Steps*stepSize], endpoints inclusive, and concatenates the rows
// in spec order. No sorting is applied: when two specs force the same node
// at the same grid time, the later-listed spec's row comes later in the
// table, and the integrator's in-order application makes it win.
func BuildTable(specs []Spec, stepSize float64) ([]Event, error) {
	if !(stepSize > 0) {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidStepSize, stepSize)
	}

	var table []Event
	for _, s := range specs {
		if s.Steps < 0 {
			return nil, fmt.Errorf("%w: duration for %s is negative (%d)", ErrInvalidPerturbation, s.Node, s.Steps)
		}
		for i := 0; i <= s.Steps; i++ {
			table = append(table, Event{
				Node:  s.Node,
				Time:  s.At + float64(i)*stepSize,
				Value: s.Value,
			})
		}
	}
	return table, nil
}
