package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villawad/agora-results/internal/record"
	"github.com/villawad/agora-results/internal/store"
)

func TestRun_Scenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ReportsFailedAssertions(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/default_pipeline.yaml")
	require.NoError(t, err)
	q := 0
	s.Assertions = []Assertion{
		{Type: AssertFinalState, Question: &q, Answer: "Banana", Expect: map[string]any{"total_count": 4}},
		{Type: AssertTraceCount, Ref: "agora_results.pipes.results.do_tallies", Count: 2},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "total_count = 4")
	assert.Contains(t, result.Errors[0], "total_count = 3")
	assert.Contains(t, result.Errors[1], "agora_results.pipes.results.do_tallies x1")
}

func TestRun_UnexpectedStatus(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/invalid_ballot_rejected.yaml")
	require.NoError(t, err)
	s.Expect = ExpectClause{}
	s.Assertions = nil

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "expected run status succeeded, got failed")
	assert.Contains(t, result.Errors[0], "invalid ballot on line 2")
}

func TestRun_ResultsAndTrace(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/withdraw_winner.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, store.StatusSucceeded, result.Status)
	assert.Empty(t, result.RunError)
	require.Len(t, result.Trace, 3)
	for i, event := range result.Trace {
		assert.Equal(t, i, event.Index)
		assert.Equal(t, store.StatusSucceeded, event.Status)
	}

	results, ok := result.Results.(record.Object)
	require.True(t, ok)
	qs, err := results.Array("questions")
	require.NoError(t, err)
	questions, err := qs.Objects()
	require.NoError(t, err)
	answers, err := questions[0].Array("answers")
	require.NoError(t, err)
	assert.Len(t, answers, 2)
}

func TestRun_UnresolvableStepHasNoTrace(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/unknown_unit.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, store.StatusFailed, result.Status)
	assert.Empty(t, result.Trace)
	assert.Nil(t, result.Results)
}

func TestRunContext_Cancelled(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/default_pipeline.yaml")
	require.NoError(t, err)
	s.Expect = ExpectClause{Status: store.StatusInterrupted}
	s.Assertions = nil

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := RunContext(ctx, s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, store.StatusInterrupted, result.Status)
	assert.Contains(t, result.RunError, "INTERRUPTED")
}
