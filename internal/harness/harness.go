package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/villawad/agora-results/internal/archive"
	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/pipelineconf"
	"github.com/villawad/agora-results/internal/pipes"
	"github.com/villawad/agora-results/internal/record"
	"github.com/villawad/agora-results/internal/store"
	"github.com/villawad/agora-results/internal/tally"
)

// TraceEvent is one executed step, as recorded in the ledger.
type TraceEvent struct {
	Index  int    `json:"index"`
	Ref    string `json:"ref"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when the expected outcome and every assertion match.
	Pass bool `json:"pass"`

	// Status is the run status recorded in the ledger.
	Status string `json:"status"`

	// RunError is the error the run returned, if any.
	RunError string `json:"run_error,omitempty"`

	// Trace lists the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Results is the first entry's results record, nil when no step
	// produced one.
	Results record.Value `json:"results,omitempty"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}, Errors: []string{}}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario with a background context.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext executes a scenario and returns the result.
//
// Each scenario runs in a fresh scratch directory holding its archives,
// its ephemeral extraction directories and its ledger. The returned error
// reports harness failures only; pipeline failures are part of the Result.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	tmp, err := os.MkdirTemp("", "agora-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	archives, err := writeArchives(tmp, scenario.Tallies)
	if err != nil {
		return nil, err
	}
	cfg, err := scenario.Config()
	if err != nil {
		return nil, err
	}

	workDir := filepath.Join(tmp, "work")
	if err := os.Mkdir(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}

	st, err := store.Open(filepath.Join(tmp, "ledger.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer st.Close()

	runID := scenario.RunID
	if runID == "" {
		runID = defaultRunID
	}

	res, runErr := engine.Run(ctx, engine.RunOptions{
		Archives: archives,
		Config:   cfg,
		Registry: pipes.NewRegistry(),
		Observer: store.NewRecorder(st),
		IDs:      engine.NewFixedGenerator(runID),
		BaseDir:  workDir,
	})

	result := NewResult()
	if runErr != nil {
		result.RunError = runErr.Error()
	}
	if err := collect(context.WithoutCancel(ctx), st, res, result); err != nil {
		if !errors.Is(err, store.ErrRunNotFound) || runErr == nil {
			return nil, err
		}
		// Configuration errors fail the run before it reaches the ledger.
		result.Status = store.StatusOf(runErr)
	}

	checkExpect(scenario.Expect, result)
	if res.DirsRemaining != 0 {
		result.AddError(fmt.Sprintf("%d temporary directories left on disk", res.DirsRemaining))
	}
	if leftovers, err := os.ReadDir(workDir); err == nil && len(leftovers) > 0 {
		result.AddError(fmt.Sprintf("work directory not empty: %d entries", len(leftovers)))
	}

	for i, assertion := range scenario.Assertions {
		if err := evaluate(assertion, result); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return result, nil
}

// Config returns the scenario's pipeline, or the default pipeline when the
// scenario names none.
func (s *Scenario) Config() (engine.Config, error) {
	if s.Pipeline.Kind == 0 {
		return engine.DefaultConfig(), nil
	}
	data, err := yaml.Marshal(&s.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pipeline: %w", err)
	}
	return pipelineconf.Parse(data, pipelineconf.FormatYAML, s.Name+".pipeline.yaml")
}

func writeArchives(dir string, tallies []Tally) ([]string, error) {
	paths := make([]string, len(tallies))
	for i, t := range tallies {
		files := map[string]string{tally.QuestionsFile: t.Questions}
		for qi, body := range t.Ballots {
			files[fmt.Sprintf("%d-question/%s", qi, tally.BallotsFile)] = body
		}
		paths[i] = filepath.Join(dir, fmt.Sprintf("tally-%d.tar.gz", i))
		if err := archive.Create(paths[i], files); err != nil {
			return nil, fmt.Errorf("tallies[%d]: %w", i, err)
		}
	}
	return paths, nil
}

// collect copies the ledger trace and the final results into result.
func collect(ctx context.Context, st *store.Store, res *engine.RunResult, result *Result) error {
	run, err := st.GetRun(ctx, res.RunID)
	if err != nil {
		return fmt.Errorf("failed to read run from ledger: %w", err)
	}
	result.Status = run.Status

	steps, err := st.ListSteps(ctx, res.RunID)
	if err != nil {
		return fmt.Errorf("failed to read steps from ledger: %w", err)
	}
	for _, s := range steps {
		result.Trace = append(result.Trace, TraceEvent{
			Index:  s.Index,
			Ref:    s.Ref,
			Status: s.Status,
			Error:  s.Error,
		})
	}

	if first := res.Data.First(); first != nil {
		if v, ok := first.Record[engine.FieldResults]; ok {
			result.Results = v
		}
	}
	return nil
}

func checkExpect(expect ExpectClause, result *Result) {
	want := expect.Status
	if want == "" {
		want = store.StatusSucceeded
	}
	if result.Status != want {
		msg := fmt.Sprintf("expected run status %s, got %s", want, result.Status)
		if result.RunError != "" {
			msg += ": " + result.RunError
		}
		result.AddError(msg)
	}
	if expect.Error != "" && !strings.Contains(result.RunError, expect.Error) {
		result.AddError(fmt.Sprintf("expected run error containing %q, got %q", expect.Error, result.RunError))
	}
}
