// Package store persists completed simulation runs and their trajectories.
package store

import (
	"context"
	"time"

	"github.com/nvandessel/squadsim/internal/sim"
)

// Run is the stored metadata of one completed simulation.
type Run struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	H         float64   `json:"h"`
	Gamma     float64   `json:"gamma"`
	Horizon   float64   `json:"horizon"`
	StepSize  float64   `json:"step_size"`
	Nodes     []string  `json:"nodes"`
}

// RunStore persists runs and their sampled trajectories.
type RunStore interface {
	// SaveRun stores the run metadata and trajectory, assigning and
	// returning the run ID.
	SaveRun(ctx context.Context, run Run, tr *sim.Trajectory) (string, error)

	// GetRun returns one run's metadata.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns all stored runs, newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	// GetTrajectory reloads a run's full trajectory.
	GetTrajectory(ctx context.Context, id string) (*sim.Trajectory, error)

	// DeleteRun removes a run and its samples.
	DeleteRun(ctx context.Context, id string) error

	Close() error
}
