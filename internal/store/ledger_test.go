package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/testutil"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusSucceeded, StatusOf(nil))
	assert.Equal(t, StatusFailed, StatusOf(errors.New("boom")))
	assert.Equal(t, StatusInterrupted, StatusOf(context.Canceled))
	assert.Equal(t, StatusInterrupted, StatusOf(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.Equal(t, StatusInterrupted, StatusOf(&engine.InterruptedError{Stage: engine.StageExecution, Index: 1, Err: context.Canceled}))
}

func TestLedger_RunLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cfg := engine.DefaultConfig()
	hash, err := cfg.Hash()
	require.NoError(t, err)

	require.NoError(t, s.BeginRun(ctx, engine.RunInfo{
		ID:         "run-1",
		Archives:   []string{"a.tar.gz", "b.tar.gz"},
		Config:     cfg,
		ConfigHash: hash,
	}))
	require.NoError(t, s.BeginStep(ctx, "run-1", 0, engine.Step{
		Ref:    "agora_results.pipes.results.do_tallies",
		Params: engine.Params{"ignore_invalid_votes": true},
	}))
	require.NoError(t, s.FinishStep(ctx, "run-1", 0, nil))
	require.NoError(t, s.BeginStep(ctx, "run-1", 1, engine.Step{Ref: "agora_results.pipes.sort.sort_non_iterative"}))
	require.NoError(t, s.FinishStep(ctx, "run-1", 1, errors.New("missing field")))
	require.NoError(t, s.FinishRun(ctx, "run-1", "", 2, &engine.StepExecutionError{Index: 1, Ref: "x.y", Err: errors.New("missing field")}))

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Seq)
	assert.Equal(t, hash, run.ConfigHash)
	assert.Equal(t, []string{"a.tar.gz", "b.tar.gz"}, run.Archives)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Contains(t, run.Error, "missing field")
	assert.Empty(t, run.ResultsHash)
	assert.Equal(t, 2, run.Entries)
	assert.NotEmpty(t, run.StartedAt)

	steps, err := s.ListSteps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, `{"ignore_invalid_votes":true}`, steps[0].Params)
	assert.Equal(t, StatusSucceeded, steps[0].Status)
	assert.Equal(t, "{}", steps[1].Params)
	assert.Equal(t, StatusFailed, steps[1].Status)
	assert.Equal(t, "missing field", steps[1].Error)
}

func TestLedger_BeginRunIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	info := engine.RunInfo{ID: "run-1", ConfigHash: "h"}

	require.NoError(t, s.BeginRun(ctx, info))
	require.NoError(t, s.BeginRun(ctx, info))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.Empty(t, runs[0].Archives)
}

func TestLedger_ListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, s.BeginRun(ctx, engine.RunInfo{ID: id, ConfigHash: "h"}))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].ID)
	assert.Equal(t, "second", runs[1].ID)
}

func TestLedger_GetRunNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestLedger_EmptyResults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	steps, err := s.ListSteps(ctx, "nope")
	require.NoError(t, err)
	assert.NotNil(t, steps)
	assert.Empty(t, steps)
}

func TestRecorder_RecordsRun(t *testing.T) {
	s := openTestStore(t)
	archive := testutil.WriteArchive(t, t.TempDir(), "tally.tar.gz", testutil.SimpleTally())

	reg := engine.NewRegistry()
	reg.MustRegister("test.tag", engine.UnitFunc(func(_ context.Context, data *engine.DataSet, _ engine.Params) error {
		data.First().Record[engine.FieldResults] = data.First().Record[engine.FieldQuestions]
		return nil
	}))

	res, err := engine.Run(context.Background(), engine.RunOptions{
		Archives: []string{archive},
		Config:   engine.Config{{Ref: "test.tag", Params: engine.Params{"n": 1}}},
		Registry: reg,
		Observer: NewRecorder(s),
		IDs:      engine.NewFixedGenerator("run-recorded"),
		BaseDir:  t.TempDir(),
	})
	require.NoError(t, err)

	run, err := s.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, run.Status)
	assert.Equal(t, 1, run.Entries)

	want, err := engine.ResultsHash(res.Data)
	require.NoError(t, err)
	assert.Equal(t, want, run.ResultsHash)

	steps, err := s.ListSteps(context.Background(), res.RunID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "test.tag", steps[0].Ref)
	assert.Equal(t, `{"n":1}`, steps[0].Params)
	assert.Equal(t, StatusSucceeded, steps[0].Status)
}

func TestRecorder_RecordsInterruption(t *testing.T) {
	s := openTestStore(t)
	archive := testutil.WriteArchive(t, t.TempDir(), "tally.tar.gz", testutil.SimpleTally())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := engine.NewRegistry()
	reg.MustRegister("test.cancel", engine.UnitFunc(func(context.Context, *engine.DataSet, engine.Params) error {
		cancel()
		return nil
	}))
	reg.MustRegister("test.never", engine.UnitFunc(func(context.Context, *engine.DataSet, engine.Params) error {
		t.Error("step after interruption ran")
		return nil
	}))

	_, err := engine.Run(ctx, engine.RunOptions{
		Archives: []string{archive},
		Config:   engine.Config{{Ref: "test.cancel"}, {Ref: "test.never"}},
		Registry: reg,
		Observer: NewRecorder(s),
		IDs:      engine.NewFixedGenerator("run-interrupted"),
		BaseDir:  t.TempDir(),
	})
	require.True(t, engine.IsInterrupted(err))

	run, err := s.GetRun(context.Background(), "run-interrupted")
	require.NoError(t, err)
	assert.Equal(t, StatusInterrupted, run.Status)

	steps, err := s.ListSteps(context.Background(), "run-interrupted")
	require.NoError(t, err)
	assert.Len(t, steps, 1)
}
