// Package pipes holds the built-in pipeline units.
//
// Every unit follows the engine contract: it receives the shared DataSet
// and its step parameters, mutates entries in place and returns only an
// error. Register adds them all to a registry under their
// "agora_results.pipes.*" references.
//
// Results layout written by DoTallies and read by the other units:
//
//	results: {
//	  total_votes: int
//	  questions: [{
//	    ...question fields from questions_json...
//	    answers: [{id, text, total_count, winner_position}]
//	    totals:  {valid_votes, blank_votes, null_votes}
//	  }]
//	}
package pipes
