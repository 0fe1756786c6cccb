package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/record"
)

// Run and step statuses.
const (
	StatusRunning     = "running"
	StatusSucceeded   = "succeeded"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// StatusOf classifies the error a run or step finished with.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusSucceeded
	case engine.IsInterrupted(err),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return StatusInterrupted
	default:
		return StatusFailed
	}
}

// BeginRun inserts a run in the running state.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) BeginRun(ctx context.Context, info engine.RunInfo) error {
	configJSON, err := json.Marshal(info.Config)
	if err != nil {
		return fmt.Errorf("begin run: marshal config: %w", err)
	}
	archives := info.Archives
	if archives == nil {
		archives = []string{}
	}
	archivesJSON, err := json.Marshal(archives)
	if err != nil {
		return fmt.Errorf("begin run: marshal archives: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seq, config_hash, config, archives, status)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		info.ID,
		info.ConfigHash,
		string(configJSON),
		string(archivesJSON),
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, runID, resultsHash string, entries int, runErr error) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error = ?, results_hash = ?, entries = ?
		WHERE id = ?
	`,
		StatusOf(runErr),
		errorText(runErr),
		nullString(resultsHash),
		entries,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// BeginStep records that step index of a run started. The parameters are
// stored as canonical JSON when they are representable as a record, and
// as plain JSON otherwise.
func (s *Store) BeginStep(ctx context.Context, runID string, index int, step engine.Step) error {
	params, err := marshalParams(step.Params)
	if err != nil {
		return fmt.Errorf("begin step: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO step_runs (run_id, step_index, ref, params, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, step_index) DO NOTHING
	`, runID, index, step.Ref, params, StatusRunning)
	if err != nil {
		return fmt.Errorf("begin step: %w", err)
	}
	return nil
}

// FinishStep records the outcome of step index of a run.
func (s *Store) FinishStep(ctx context.Context, runID string, index int, stepErr error) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE step_runs SET status = ?, error = ?
		WHERE run_id = ? AND step_index = ?
	`, StatusOf(stepErr), errorText(stepErr), runID, index)
	if err != nil {
		return fmt.Errorf("finish step: %w", err)
	}
	return nil
}

func marshalParams(p engine.Params) (string, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	if data, err := record.MarshalCanonical(map[string]any(p)); err == nil {
		return string(data), nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

func errorText(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: err.Error(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
