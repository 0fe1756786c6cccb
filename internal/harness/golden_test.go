package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villawad/agora-results/internal/record"
)

func TestRunWithGolden_DefaultPipeline(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/default_pipeline.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_CanonicalForm(t *testing.T) {
	snap := Snapshot{ScenarioName: "empty", Status: "failed", Trace: []TraceEvent{
		{Index: 0, Ref: "a.b", Status: "failed", Error: "boom"},
	}}

	data, err := record.MarshalCanonical(snap.toRecord())
	require.NoError(t, err)
	assert.Equal(t,
		`{"results":null,"scenario_name":"empty","status":"failed","trace":[{"error":"boom","index":0,"ref":"a.b","status":"failed"}]}`,
		string(data))
}
