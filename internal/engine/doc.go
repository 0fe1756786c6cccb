// Package engine implements the pipeline execution engine.
//
// A pipeline is an ordered list of steps, each naming a registered Unit by
// dotted reference (for example "agora_results.pipes.results.do_tallies")
// plus parameters. The engine threads one mutable DataSet through every
// step in order.
//
// ARCHITECTURE:
//
// Registry:
// Units are registered under dotted references at process startup. The
// engine holds no static dependency on any unit implementation.
//
// Executor:
// All references are resolved before the first step runs, so a
// configuration error aborts before any data is touched. Steps then run
// strictly sequentially in configuration order:
// - a unit mutates the DataSet in place and returns only an error
// - the first error aborts the remaining steps (no rollback)
// - context cancellation is observed between steps
//
// Run:
// Run ties the executor to a workspace.Manager. Every input archive is
// extracted into a tracked ephemeral directory, one Entry per archive, and
// the deferred ReleaseAll removes every directory on all exit paths.
//
// The DataSet pointer is fixed for the whole run. Units may add, remove,
// reorder or replace entries through DataSet.Entries, never the pointer
// itself.
package engine
