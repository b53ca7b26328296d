package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/squadsim/internal/sim"
)

// SQLiteRunStore implements RunStore on a SQLite database.
type SQLiteRunStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteRunStore opens (or creates) the run database at dir/squadsim.db.
func NewSQLiteRunStore(dir string) (*SQLiteRunStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dir, "squadsim.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &SQLiteRunStore{db: db}, nil
}

// SaveRun stores the run and every trajectory sample in one transaction.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, run Run, tr *sim.Trajectory) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.ID == "" {
		run.ID = newRunID(run)
	}
	if len(run.Nodes) == 0 && tr != nil {
		run.Nodes = tr.Nodes
	}

	nodesJSON, err := json.Marshal(run.Nodes)
	if err != nil {
		return "", fmt.Errorf("encoding node list: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, name, created_at, h, gamma, horizon, step_size, nodes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Name, run.CreatedAt.Format(time.RFC3339Nano),
		run.H, run.Gamma, run.Horizon, run.StepSize, string(nodesJSON),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	if tr != nil {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (run_id, t, node, value) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return "", fmt.Errorf("preparing sample insert: %w", err)
		}
		defer stmt.Close()

		for i, t := range tr.Times {
			for j, node := range tr.Nodes {
				if _, err := stmt.ExecContext(ctx, run.ID, t, node, tr.Values[i][j]); err != nil {
					return "", fmt.Errorf("inserting sample (t=%v, %s): %w", t, node, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// GetRun returns one run's metadata.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, h, gamma, horizon, step_size, nodes
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns all stored runs, newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, h, gamma, horizon, step_size, nodes
		FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetTrajectory reloads a run's full trajectory in sample order.
func (s *SQLiteRunStore) GetTrajectory(ctx context.Context, id string) (*sim.Trajectory, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT t, node, value FROM samples WHERE run_id = ? ORDER BY t`, id)
	if err != nil {
		return nil, fmt.Errorf("loading samples for %s: %w", id, err)
	}
	defer rows.Close()

	index := make(map[string]int, len(run.Nodes))
	for j, name := range run.Nodes {
		index[name] = j
	}

	tr := &sim.Trajectory{Nodes: run.Nodes}
	for rows.Next() {
		var t, value float64
		var node string
		if err := rows.Scan(&t, &node, &value); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		j, ok := index[node]
		if !ok {
			return nil, fmt.Errorf("sample references unknown node %s", node)
		}
		if len(tr.Times) == 0 || tr.Times[len(tr.Times)-1] != t {
			tr.Times = append(tr.Times, t)
			tr.Values = append(tr.Values, make([]float64, len(run.Nodes)))
		}
		tr.Values[len(tr.Values)-1][j] = value
	}
	return tr, rows.Err()
}

// DeleteRun removes a run; samples cascade.
func (s *SQLiteRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteRunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var createdAt, nodesJSON string
	if err := row.Scan(&run.ID, &run.Name, &createdAt, &run.H, &run.Gamma, &run.Horizon, &run.StepSize, &nodesJSON); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	run.CreatedAt = ts
	if err := json.Unmarshal([]byte(nodesJSON), &run.Nodes); err != nil {
		return nil, fmt.Errorf("decoding node list: %w", err)
	}
	return &run, nil
}

// newRunID derives a short content-addressed ID from the run's identity.
func newRunID(run Run) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%v|%v", run.Name, run.CreatedAt.Format(time.RFC3339Nano), run.H, run.Gamma)
	return hex.EncodeToString(h.Sum(nil))[:12]
}
