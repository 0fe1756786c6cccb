package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is a ledger row of the runs table.
type Run struct {
	ID          string   `json:"id"`
	Seq         int64    `json:"seq"`
	ConfigHash  string   `json:"config_hash"`
	Config      string   `json:"config"`
	Archives    []string `json:"archives"`
	Status      string   `json:"status"`
	Error       string   `json:"error,omitempty"`
	ResultsHash string   `json:"results_hash,omitempty"`
	Entries     int      `json:"entries"`
	StartedAt   string   `json:"started_at"`
}

// StepRun is a ledger row of the step_runs table.
type StepRun struct {
	RunID  string `json:"run_id"`
	Index  int    `json:"index"`
	Ref    string `json:"ref"`
	Params string `json:"params"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const runColumns = `id, seq, config_hash, config, archives, status, error, results_hash, entries, started_at`

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListSteps returns the steps of a run in execution order.
// Returns an empty slice (not nil) if the run executed no step.
func (s *Store) ListSteps(ctx context.Context, runID string) ([]StepRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, step_index, ref, params, status, error
		FROM step_runs
		WHERE run_id = ?
		ORDER BY step_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []StepRun{}
	for rows.Next() {
		var (
			st     StepRun
			errMsg sql.NullString
		)
		if err := rows.Scan(&st.RunID, &st.Index, &st.Ref, &st.Params, &st.Status, &errMsg); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		st.Error = errMsg.String
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run         Run
		archives    string
		errMsg      sql.NullString
		resultsHash sql.NullString
	)
	err := sc.Scan(
		&run.ID,
		&run.Seq,
		&run.ConfigHash,
		&run.Config,
		&archives,
		&run.Status,
		&errMsg,
		&resultsHash,
		&run.Entries,
		&run.StartedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(archives), &run.Archives); err != nil {
		return Run{}, fmt.Errorf("decode archives of run %s: %w", run.ID, err)
	}
	run.Error = errMsg.String
	run.ResultsHash = resultsHash.String
	return run, nil
}
