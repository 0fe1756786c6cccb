package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/villawad/agora-results/internal/store"
)

// Scenario defines an end-to-end pipeline scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tallies are written as archives, in order, before the run.
	Tallies []Tally `yaml:"tallies"`

	// Pipeline is the configuration document. Absent means the default
	// pipeline.
	Pipeline yaml.Node `yaml:"pipeline,omitempty"`

	// Expect is the expected run outcome. Status defaults to succeeded.
	Expect ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the trace and the final results.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is a fixed run ID for deterministic output. Defaults to
	// "scenario-run".
	RunID string `yaml:"run_id,omitempty"`
}

// Tally is the content of one archive.
type Tally struct {
	// Questions is the questions_json document.
	Questions string `yaml:"questions"`

	// Ballots[i] is the plaintexts_json body of question i.
	Ballots []string `yaml:"ballots"`
}

// ExpectClause specifies the expected run outcome.
type ExpectClause struct {
	// Status is one of the ledger statuses.
	Status string `yaml:"status,omitempty"`

	// Error is a substring the run error must contain.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the final results.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Ref is a step reference (trace_contains, trace_count).
	Ref string `yaml:"ref,omitempty"`

	// Status is the expected step status (trace_contains, optional).
	Status string `yaml:"status,omitempty"`

	// Refs is the expected step order (trace_order).
	Refs []string `yaml:"refs,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Question selects a result question (final_state). Nil targets the
	// results record itself.
	Question *int `yaml:"question,omitempty"`

	// Answer selects an answer of Question by text (final_state). Empty
	// targets the question's totals.
	Answer string `yaml:"answer,omitempty"`

	// Expect holds the expected field values (final_state). Subset match;
	// null matches a null field.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

const defaultRunID = "scenario-run"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields so typos like "assertion:" fail loudly.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Assertions) == 0 && s.Expect.Status == "" {
		return fmt.Errorf("assertions or expect.status is required")
	}

	for i, t := range s.Tallies {
		if t.Questions == "" {
			return fmt.Errorf("tallies[%d]: questions is required", i)
		}
	}

	switch s.Expect.Status {
	case "", store.StatusSucceeded, store.StatusFailed, store.StatusInterrupted:
	default:
		return fmt.Errorf("expect: unknown status %q", s.Expect.Status)
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Ref == "" {
			return fmt.Errorf("assertions[%d]: ref is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Refs) == 0 {
			return fmt.Errorf("assertions[%d]: refs list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Ref == "" {
			return fmt.Errorf("assertions[%d]: ref is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		if a.Answer != "" && a.Question == nil {
			return fmt.Errorf("assertions[%d]: answer requires question", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
