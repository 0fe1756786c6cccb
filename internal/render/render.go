// Package render prints the final dataset of a run.
//
// Rendering is read-only: it looks at the record of the first entry and
// never mutates it.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/record"
)

// Format names an output format.
type Format string

// Supported output formats.
const (
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatTSV    Format = "tsv"
	FormatPretty Format = "pretty"
)

var writers = map[Format]func(io.Writer, record.Object) error{
	FormatJSON:   writeJSON,
	FormatCSV:    func(w io.Writer, rec record.Object) error { return writeDelimited(w, rec, ',') },
	FormatTSV:    func(w io.Writer, rec record.Object) error { return writeDelimited(w, rec, '\t') },
	FormatPretty: writePretty,
}

// ErrNoResults is returned by the tabular formats when the record carries
// no results.
var ErrNoResults = errors.New("no results to render: the pipeline did not tally")

// Formats returns the supported format names, sorted.
func Formats() []string {
	out := make([]string, 0, len(writers))
	for f := range writers {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := writers[f]; !ok {
		return "", fmt.Errorf("unknown output format %q (expected one of %s)", s, strings.Join(Formats(), ", "))
	}
	return f, nil
}

// Write renders the first entry of data in format f.
func Write(w io.Writer, f Format, data *engine.DataSet) error {
	fn, ok := writers[f]
	if !ok {
		return fmt.Errorf("unknown output format %q", f)
	}
	entry := data.First()
	if entry == nil {
		return errors.New("nothing to render: dataset is empty")
	}
	return fn(w, entry.Record)
}

// writeJSON prints the results, or the decoded questions when no unit
// produced results, as indented JSON with sorted keys.
func writeJSON(w io.Writer, rec record.Object) error {
	v, ok := rec[engine.FieldResults]
	if !ok {
		v = rec[engine.FieldQuestions]
	}
	raw, err := record.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("indent: %w", err)
	}
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}
