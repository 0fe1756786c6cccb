package store

import (
	"context"
	"log/slog"

	"github.com/villawad/agora-results/internal/engine"
)

// Recorder writes run and step transitions to a Store. It implements
// engine.Observer.
//
// Writes use a context detached from cancellation so an interrupted run is
// still recorded as interrupted. Write failures are logged and never fail
// the run.
type Recorder struct {
	store *Store
}

var _ engine.Observer = (*Recorder)(nil)

// NewRecorder returns a Recorder writing to s.
func NewRecorder(s *Store) *Recorder {
	return &Recorder{store: s}
}

func (r *Recorder) RunStarted(ctx context.Context, info engine.RunInfo) {
	if err := r.store.BeginRun(context.WithoutCancel(ctx), info); err != nil {
		slog.Warn("ledger write failed", "run_id", info.ID, "error", err)
	}
}

func (r *Recorder) StepStarted(ctx context.Context, runID string, index int, step engine.Step) {
	if err := r.store.BeginStep(context.WithoutCancel(ctx), runID, index, step); err != nil {
		slog.Warn("ledger write failed", "run_id", runID, "step", index, "error", err)
	}
}

func (r *Recorder) StepFinished(ctx context.Context, runID string, index int, _ engine.Step, stepErr error) {
	if err := r.store.FinishStep(context.WithoutCancel(ctx), runID, index, stepErr); err != nil {
		slog.Warn("ledger write failed", "run_id", runID, "step", index, "error", err)
	}
}

func (r *Recorder) RunFinished(ctx context.Context, runID string, data *engine.DataSet, runErr error) {
	hash, err := engine.ResultsHash(data)
	if err != nil {
		slog.Warn("results hash failed", "run_id", runID, "error", err)
	}
	if err := r.store.FinishRun(context.WithoutCancel(ctx), runID, hash, data.Len(), runErr); err != nil {
		slog.Warn("ledger write failed", "run_id", runID, "error", err)
	}
}
