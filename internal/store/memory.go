package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nvandessel/squadsim/internal/sim"
)

// MemoryRunStore implements RunStore in memory, for tests and one-shot runs
// that skip persistence.
type MemoryRunStore struct {
	mu     sync.RWMutex
	runs   map[string]Run
	trajs  map[string]*sim.Trajectory
	serial int
}

// NewMemoryRunStore creates an empty in-memory run store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{
		runs:  make(map[string]Run),
		trajs: make(map[string]*sim.Trajectory),
	}
}

// SaveRun stores the run and trajectory.
func (s *MemoryRunStore) SaveRun(_ context.Context, run Run, tr *sim.Trajectory) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.ID == "" {
		s.serial++
		run.ID = fmt.Sprintf("mem-%04d", s.serial)
	}
	if _, exists := s.runs[run.ID]; exists {
		return "", fmt.Errorf("run %s already exists", run.ID)
	}
	if len(run.Nodes) == 0 && tr != nil {
		run.Nodes = tr.Nodes
	}

	s.runs[run.ID] = run
	s.trajs[run.ID] = tr
	return run.ID, nil
}

// GetRun returns one run's metadata.
func (s *MemoryRunStore) GetRun(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return &run, nil
}

// ListRuns returns all stored runs, newest first.
func (s *MemoryRunStore) ListRuns(_ context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

// GetTrajectory returns a run's stored trajectory.
func (s *MemoryRunStore) GetTrajectory(_ context.Context, id string) (*sim.Trajectory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tr, ok := s.trajs[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return tr, nil
}

// DeleteRun removes a run and its trajectory.
func (s *MemoryRunStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("run %s not found", id)
	}
	delete(s.runs, id)
	delete(s.trajs, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryRunStore) Close() error { return nil }
