// Package harness runs end-to-end pipeline scenarios.
//
// A scenario describes one or more tally archives, an optional pipeline
// configuration and the expected outcome. The harness writes the archives,
// runs the pipeline through engine.Run with the built-in units, records the
// run in a scratch ledger and evaluates the scenario's assertions against
// the ledger trace and the final results.
//
// # Scenario Format
//
//	name: withdraw_winner
//	description: "Withdrawing the winner promotes the runner-up"
//	tallies:
//	  - questions: |
//	      [{"title": "Q", "tally_type": "plurality-at-large", ...}]
//	    ballots:
//	      - |
//	        [1]
//	        [0]
//	pipeline:
//	  - [agora_results.pipes.results.do_tallies, null]
//	  - [agora_results.pipes.modifications.withdraw_answers, {question_index: 0, answer_ids: [1]}]
//	  - [agora_results.pipes.sort.sort_non_iterative, null]
//	expect:
//	  status: succeeded
//	assertions:
//	  - type: trace_order
//	    refs: [agora_results.pipes.results.do_tallies, agora_results.pipes.modifications.withdraw_answers]
//	  - type: final_state
//	    question: 0
//	    answer: Apple
//	    expect: { total_count: 2, winner_position: 0 }
//
// The pipeline document uses the same syntax as a YAML configuration file.
// When it is absent the default pipeline runs.
//
// # Assertion Types
//
//   - trace_contains: a step with the given ref ran (optionally with a status)
//   - trace_order: refs appear in the trace in the given order
//   - trace_count: a ref appears exactly N times
//   - final_state: fields of a result answer, a question's totals, or the
//     results record itself match the expected values
//
// # Golden Files
//
// RunWithGolden compares the canonical JSON snapshot of a run (status,
// trace and results) with testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
