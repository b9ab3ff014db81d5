package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/cellindex/internal/cellindex"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is one stored cell-list build.
type Run struct {
	RunID         string         `json:"run_id"`
	CreatedAt     time.Time      `json:"created_at"`
	DomainSize    float64        `json:"domain_size"`
	Cutoff        float64        `json:"cutoff"`
	Cells         int            `json:"cells"`
	ParticleCount int            `json:"particle_count"`
	Boundary      string         `json:"boundary"`
	PairCount     int            `json:"pair_count"`
	BuildDuration time.Duration  `json:"build_duration_ns"`
	Params        map[string]any `json:"params,omitempty"`
}

// IndexConfig returns the configuration that reproduces the stored build.
func (r *Run) IndexConfig() (cellindex.Config, error) {
	b, err := cellindex.ParseBoundary(r.Boundary)
	if err != nil {
		return cellindex.Config{}, err
	}
	return cellindex.Config{
		DomainSize: r.DomainSize,
		Cutoff:     r.Cutoff,
		Cells:      r.Cells,
		Boundary:   b,
	}, nil
}

// RunStore reads and writes runs.
type RunStore struct {
	db *DB
}

// NewRunStore creates a store backed by db.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Insert stores idx with its particles and pairs in one transaction.
// run may be nil; its identity and descriptive fields are filled from idx,
// and a run id is generated when empty. run is updated only after the
// commit succeeds. Returns the run id.
func (s *RunStore) Insert(run *Run, idx *cellindex.Index, took time.Duration) (string, error) {
	var rec Run
	if run != nil {
		rec = *run
	}
	if rec.RunID == "" {
		rec.RunID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.DomainSize = idx.DomainSize()
	rec.Cutoff = idx.Cutoff()
	rec.Cells = idx.GridSize()
	rec.ParticleCount = idx.Len()
	rec.Boundary = idx.Boundary().String()
	rec.PairCount = idx.PairCount()
	rec.BuildDuration = took

	var paramsStr sql.NullString
	if len(rec.Params) > 0 {
		b, err := json.Marshal(rec.Params)
		if err != nil {
			return "", fmt.Errorf("marshal params: %w", err)
		}
		paramsStr = sql.NullString{String: string(b), Valid: true}
	}

	err := retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
			INSERT INTO runs (
				run_id, created_at, domain_size, cutoff, cells,
				particle_count, boundary, pair_count, build_nanos, params_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, rec.CreatedAt.UnixNano(), rec.DomainSize, rec.Cutoff, rec.Cells,
			rec.ParticleCount, rec.Boundary, rec.PairCount, int64(rec.BuildDuration), paramsStr,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		pstmt, err := tx.Prepare(`INSERT INTO run_particles (run_id, particle_id, x, y, radius) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer pstmt.Close()
		for _, p := range idx.Particles() {
			if _, err := pstmt.Exec(rec.RunID, p.ID, p.X, p.Y, p.Radius); err != nil {
				return fmt.Errorf("insert particle %d: %w", p.ID, err)
			}
		}

		qstmt, err := tx.Prepare(`INSERT INTO run_pairs (run_id, a, b) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer qstmt.Close()
		for a, b := range idx.AllPairs() {
			if _, err := qstmt.Exec(rec.RunID, a, b); err != nil {
				return fmt.Errorf("insert pair (%d,%d): %w", a, b, err)
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	if run != nil {
		*run = rec
	}
	return rec.RunID, nil
}

const runColumns = `run_id, created_at, domain_size, cutoff, cells,
	particle_count, boundary, pair_count, build_nanos, params_json`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var createdNanos, buildNanos int64
	var paramsStr sql.NullString
	if err := row.Scan(
		&r.RunID, &createdNanos, &r.DomainSize, &r.Cutoff, &r.Cells,
		&r.ParticleCount, &r.Boundary, &r.PairCount, &buildNanos, &paramsStr,
	); err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, createdNanos)
	r.BuildDuration = time.Duration(buildNanos)
	if paramsStr.Valid && paramsStr.String != "" {
		if err := json.Unmarshal([]byte(paramsStr.String), &r.Params); err != nil {
			return nil, fmt.Errorf("unmarshal params: %w", err)
		}
	}
	return &r, nil
}

// Get returns a run by id.
func (s *RunStore) Get(runID string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// List returns up to limit runs, newest first. limit <= 0 means all.
func (s *RunStore) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Particles returns the stored particles of a run ordered by id.
func (s *RunStore) Particles(runID string) ([]cellindex.Particle, error) {
	rows, err := s.db.Query(`
		SELECT particle_id, x, y, radius FROM run_particles
		WHERE run_id = ? ORDER BY particle_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query particles: %w", err)
	}
	defer rows.Close()

	var out []cellindex.Particle
	for rows.Next() {
		var p cellindex.Particle
		if err := rows.Scan(&p.ID, &p.X, &p.Y, &p.Radius); err != nil {
			return nil, fmt.Errorf("scan particle: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Pairs returns the stored neighbor pairs of a run in ascending order.
func (s *RunStore) Pairs(runID string) ([]cellindex.Pair, error) {
	rows, err := s.db.Query(`SELECT a, b FROM run_pairs WHERE run_id = ? ORDER BY a, b`, runID)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer rows.Close()

	var out []cellindex.Pair
	for rows.Next() {
		var p cellindex.Pair
		if err := rows.Scan(&p.A, &p.B); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Load rebuilds the index of a stored run from its particles and parameters.
func (s *RunStore) Load(runID string) (*Run, *cellindex.Index, error) {
	run, err := s.Get(runID)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := run.IndexConfig()
	if err != nil {
		return nil, nil, err
	}
	particles, err := s.Particles(runID)
	if err != nil {
		return nil, nil, err
	}
	idx, err := cellindex.Build(particles, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild run %s: %w", runID, err)
	}
	return run, idx, nil
}

// Delete removes a run; particles and pairs go with it.
func (s *RunStore) Delete(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}
