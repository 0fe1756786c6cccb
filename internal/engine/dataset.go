package engine

import (
	"github.com/villawad/agora-results/internal/record"
	"github.com/villawad/agora-results/internal/workspace"
)

// Well-known record fields.
const (
	// FieldExtractDir holds the entry's extraction directory.
	FieldExtractDir = "extract_dir"

	// FieldQuestions holds the decoded questions_json of the archive.
	FieldQuestions = "questions"

	// FieldResults is populated by tallying units.
	FieldResults = "results"
)

// Entry is the working state of one input archive.
type Entry struct {
	// Dir is the extraction directory. It is owned by the workspace
	// Manager that created it and is gone once the run ends.
	Dir *workspace.Dir

	// Record is the mutable structured record units enrich.
	Record record.Object
}

// NewEntry creates an entry holding the extraction directory and the
// decoded questions.
func NewEntry(dir *workspace.Dir, questions record.Array) *Entry {
	rec := record.Object{FieldQuestions: questions}
	if dir != nil {
		rec[FieldExtractDir] = record.String(dir.Path())
	}
	return &Entry{Dir: dir, Record: rec}
}

// Path returns the extraction directory, or "" when the entry has none.
func (e *Entry) Path() string {
	if e.Dir == nil {
		return ""
	}
	return e.Dir.Path()
}

// DataSet is the ordered collection of entries threaded through a
// pipeline, one entry per input archive in input order.
//
// Units receive the same *DataSet for the whole run and may freely add,
// remove, reorder or mutate Entries. Removing an entry never leaks its
// directory: release is driven by the workspace Manager, not the DataSet.
type DataSet struct {
	Entries []*Entry
}

// Len returns the number of entries.
func (d *DataSet) Len() int {
	return len(d.Entries)
}

// First returns the first entry, or nil when the dataset is empty.
func (d *DataSet) First() *Entry {
	if len(d.Entries) == 0 {
		return nil
	}
	return d.Entries[0]
}
