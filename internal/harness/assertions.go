package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/villawad/agora-results/internal/record"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Index, event.Ref, event.Status)
	}
	return buf.String()
}

func evaluate(a Assertion, result *Result) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertFinalState:
		return assertFinalState(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceContains checks that a step with the ref ran, with the given
// status when one is set.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if event.Ref == a.Ref && (a.Status == "" || event.Status == a.Status) {
			return nil
		}
	}

	expected := a.Ref
	if a.Status != "" {
		expected += " with status " + a.Status
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that refs appear in order. Steps don't need to
// be consecutive.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Refs) && event.Ref == a.Refs[next] {
			next++
		}
	}
	if next == len(a.Refs) {
		return nil
	}

	actual := make([]string, len(trace))
	for i, event := range trace {
		actual[i] = event.Ref
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: strings.Join(a.Refs, " -> "),
		Actual:   strings.Join(actual, " -> "),
		Trace:    trace,
	}
}

// assertTraceCount checks that a ref appears exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, event := range trace {
		if event.Ref == a.Ref {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s x%d", a.Ref, a.Count),
		Actual:   fmt.Sprintf("%s x%d", a.Ref, n),
		Trace:    trace,
	}
}

// assertFinalState matches Expect against the record selected by Question
// and Answer. Fields not named in Expect are ignored.
func assertFinalState(result *Result, a Assertion) error {
	target, err := selectTarget(result.Results, a)
	if err != nil {
		return err
	}

	for field, want := range a.Expect {
		got, ok := target[field]
		if !ok {
			return fmt.Errorf("field %q missing", field)
		}
		wantVal, err := record.FromGo(want)
		if err != nil {
			return fmt.Errorf("field %q: %w", field, err)
		}
		equal, err := sameValue(got, wantVal)
		if err != nil {
			return fmt.Errorf("field %q: %w", field, err)
		}
		if !equal {
			gotJSON, _ := record.Marshal(got)
			wantJSON, _ := record.Marshal(wantVal)
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %s", field, wantJSON),
				Actual:   fmt.Sprintf("%s = %s", field, gotJSON),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

func selectTarget(results record.Value, a Assertion) (record.Object, error) {
	root, ok := results.(record.Object)
	if !ok {
		return nil, fmt.Errorf("no results")
	}
	if a.Question == nil {
		return root, nil
	}

	qs, err := root.Array("questions")
	if err != nil {
		return nil, err
	}
	questions, err := qs.Objects()
	if err != nil {
		return nil, err
	}
	qi := *a.Question
	if qi < 0 || qi >= len(questions) {
		return nil, fmt.Errorf("question %d out of range (%d questions)", qi, len(questions))
	}
	q := questions[qi]
	if a.Answer == "" {
		return q.Object("totals")
	}

	answers, err := q.Array("answers")
	if err != nil {
		return nil, err
	}
	objs, err := answers.Objects()
	if err != nil {
		return nil, err
	}
	want := record.NormalizeText(a.Answer)
	for _, ans := range objs {
		text, err := ans.String("text")
		if err != nil {
			return nil, err
		}
		if record.NormalizeText(text) == want {
			return ans, nil
		}
	}
	return nil, fmt.Errorf("question %d has no answer %q", qi, a.Answer)
}

func sameValue(a, b record.Value) (bool, error) {
	x, err := record.MarshalCanonical(a)
	if err != nil {
		return false, err
	}
	y, err := record.MarshalCanonical(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(x, y), nil
}
