package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/villawad/agora-results/internal/record"
	"github.com/villawad/agora-results/internal/tally"
	"github.com/villawad/agora-results/internal/workspace"
)

// RunOptions describes one pipeline run.
type RunOptions struct {
	// Archives are the input tally archives, in order.
	Archives []string

	// Config is the pipeline. A nil Config runs nothing; use DefaultConfig
	// for the built-in pipeline.
	Config Config

	// Registry resolves step references.
	Registry *Registry

	// Observer receives run and step transitions (optional).
	Observer Observer

	// IDs generates the run ID (default UUIDv7Generator).
	IDs RunIDGenerator

	// BaseDir is the parent of the ephemeral directories (default
	// os.TempDir()).
	BaseDir string
}

// RunResult is the outcome of a run.
type RunResult struct {
	// RunID identifies the run in logs, directory names and the ledger.
	RunID string

	// Data is the dataset after the last executed step. Entry directories
	// have been released; records remain readable.
	Data *DataSet

	// DirsCreated is the number of ephemeral directories created.
	DirsCreated int

	// DirsRemaining is the number of directories still on disk after
	// release. Zero unless a release failed.
	DirsRemaining int
}

// Run extracts every archive into a tracked ephemeral directory, builds the
// dataset, executes the pipeline and releases every directory.
//
// Release is deferred right after the workspace Manager is created, so it
// runs on success, on any error, and after ctx is cancelled. Cancel ctx to
// interrupt a run; the CLI does this on SIGINT/SIGTERM.
//
// The result is returned even when err != nil, so callers can inspect the
// mutations made before a failure. A release failure is returned only when
// the run itself succeeded.
func Run(ctx context.Context, opts RunOptions) (res *RunResult, err error) {
	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	res = &RunResult{RunID: ids.Generate(), Data: &DataSet{}}
	log := slog.With("run_id", res.RunID)

	exec, err := NewExecutor(reg, opts.Config, WithObserver(observer))
	if err != nil {
		return res, err
	}

	configHash, err := opts.Config.Hash()
	if err != nil {
		return res, err
	}
	observer.RunStarted(ctx, RunInfo{
		ID:         res.RunID,
		Archives:   append([]string(nil), opts.Archives...),
		Config:     exec.Steps(),
		ConfigHash: configHash,
	})
	defer func() {
		observer.RunFinished(ctx, res.RunID, res.Data, err)
	}()

	mgr := workspace.New(workspace.WithBaseDir(opts.BaseDir), workspace.WithRunID(res.RunID))
	defer func() {
		relErr := mgr.ReleaseAll()
		res.DirsCreated = mgr.Created()
		res.DirsRemaining = mgr.Tracked()
		log.Info("temporary directories released", "created", res.DirsCreated, "remaining", res.DirsRemaining)
		if relErr != nil && err == nil {
			err = fmt.Errorf("release temporary directories: %w", relErr)
		}
	}()

	for i, path := range opts.Archives {
		entry, err := acquireEntry(ctx, mgr, i, path)
		if err != nil {
			return res, err
		}
		res.Data.Entries = append(res.Data.Entries, entry)
	}
	log.Info("archives extracted", "count", res.Data.Len())

	if err := exec.Execute(ctx, res.RunID, res.Data); err != nil {
		return res, err
	}
	log.Info("pipeline finished", "steps", len(opts.Config))
	return res, nil
}

func acquireEntry(ctx context.Context, mgr *workspace.Manager, i int, path string) (*Entry, error) {
	dir, err := mgr.Acquire(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &InterruptedError{Stage: StageExtraction, Index: i, Err: ctxErr}
		}
		return nil, err
	}

	questions, err := tally.Load(dir.Path())
	if err != nil {
		return nil, &workspace.ExtractionError{Archive: path, Index: i, Err: err}
	}
	return NewEntry(dir, questions), nil
}

// ResultsHash returns the content hash of the first entry's results, or ""
// when there are none.
func ResultsHash(data *DataSet) (string, error) {
	first := data.First()
	if first == nil {
		return "", nil
	}
	results, ok := first.Record[FieldResults]
	if !ok {
		return "", nil
	}
	return record.Hash(record.DomainResults, results)
}
