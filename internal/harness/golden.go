package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/villawad/agora-results/internal/record"
)

// Snapshot is the golden representation of a scenario run.
type Snapshot struct {
	ScenarioName string
	Status       string
	Trace        []TraceEvent
	Results      record.Value
}

// toRecord converts the snapshot to a record for canonical serialization.
func (s *Snapshot) toRecord() record.Object {
	trace := make(record.Array, len(s.Trace))
	for i, event := range s.Trace {
		obj := record.Object{
			"index":  record.Int(event.Index),
			"ref":    record.String(event.Ref),
			"status": record.String(event.Status),
		}
		if event.Error != "" {
			obj["error"] = record.String(event.Error)
		}
		trace[i] = obj
	}

	results := s.Results
	if results == nil {
		results = record.Null{}
	}
	return record.Object{
		"scenario_name": record.String(s.ScenarioName),
		"status":        record.String(s.Status),
		"trace":         trace,
		"results":       results,
	}
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass and Errors.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Status:       result.Status,
		Trace:        result.Trace,
		Results:      result.Results,
	}
	data, err := record.MarshalCanonical(snapshot.toRecord())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
