package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Executor runs a resolved pipeline against a DataSet.
//
// INVARIANTS:
//   - steps order NEVER changes after construction
//   - len(units) == len(steps); units[i] is the resolution of steps[i]
//   - exactly one step touches the DataSet at a time
type Executor struct {
	steps    Config
	units    []Unit
	observer Observer
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithObserver reports step transitions to o.
func WithObserver(o Observer) ExecutorOption {
	return func(e *Executor) {
		if o != nil {
			e.observer = o
		}
	}
}

// NewExecutor resolves every step of cfg against reg.
//
// Resolution happens up front so a bad reference fails with a
// *ResolutionError before any step runs. cfg is copied: later changes to
// the caller's slice do not affect the executor.
func NewExecutor(reg *Registry, cfg Config, opts ...ExecutorOption) (*Executor, error) {
	steps := cfg.Clone()
	units := make([]Unit, len(steps))
	for i, step := range steps {
		u, err := reg.resolve(step.Ref, i)
		if err != nil {
			return nil, err
		}
		units[i] = u
	}

	e := &Executor{
		steps:    steps,
		units:    units,
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Steps returns a copy of the configured steps.
func (e *Executor) Steps() Config {
	return e.steps.Clone()
}

// Execute runs every step in order against data.
//
// Each unit is invoked with data and a copy of its step's parameters; its
// only output is the returned error. The first failure aborts the
// remaining steps:
//   - cancellation of ctx between steps -> *InterruptedError
//   - a unit error or panic -> *StepExecutionError
//
// Mutations made by steps that completed are kept. An empty pipeline is a
// no-op.
func (e *Executor) Execute(ctx context.Context, runID string, data *DataSet) error {
	for i, step := range e.steps {
		if err := ctx.Err(); err != nil {
			slog.Info("pipeline interrupted", "run_id", runID, "next_step", i)
			return &InterruptedError{Stage: StageExecution, Index: i, Err: err}
		}

		slog.Debug("step starting", "run_id", runID, "step", i, "ref", step.Ref)
		e.observer.StepStarted(ctx, runID, i, step)

		err := invoke(ctx, e.units[i], data, step.Params.Clone())

		e.observer.StepFinished(ctx, runID, i, step, err)
		if err != nil {
			// A unit that gave up because the run was cancelled was
			// interrupted, not broken.
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return &InterruptedError{Stage: StageExecution, Index: i, Err: err}
			}
			slog.Error("step failed", "run_id", runID, "step", i, "ref", step.Ref, "error", err)
			return &StepExecutionError{Index: i, Ref: step.Ref, Err: err}
		}
		slog.Debug("step finished", "run_id", runID, "step", i, "ref", step.Ref, "entries", data.Len())
	}
	return nil
}

// invoke calls u, turning a panic into an error so a misbehaving unit
// aborts the pipeline like any other failure.
func invoke(ctx context.Context, u Unit, data *DataSet, params Params) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unit panicked: %v", r)
		}
	}()
	if params == nil {
		params = Params{}
	}
	return u.Apply(ctx, data, params)
}
