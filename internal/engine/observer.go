package engine

import "context"

// RunInfo describes a run when it starts.
type RunInfo struct {
	ID         string
	Archives   []string
	Config     Config
	ConfigHash string
}

// Observer receives run and step transitions. Observers must not fail the
// run: implementations log their own errors.
type Observer interface {
	RunStarted(ctx context.Context, info RunInfo)
	StepStarted(ctx context.Context, runID string, index int, step Step)
	StepFinished(ctx context.Context, runID string, index int, step Step, err error)
	RunFinished(ctx context.Context, runID string, data *DataSet, err error)
}

// NopObserver ignores every transition.
type NopObserver struct{}

func (NopObserver) RunStarted(context.Context, RunInfo) {}
func (NopObserver) StepStarted(context.Context, string, int, Step) {}
func (NopObserver) StepFinished(context.Context, string, int, Step, error) {}
func (NopObserver) RunFinished(context.Context, string, *DataSet, error) {}
