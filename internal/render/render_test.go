package render

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/record"
	"github.com/villawad/agora-results/internal/testutil"
)

// tallied is the results record of a two-question election after
// do_tallies and sort_non_iterative.
const tallied = `{
  "total_votes": 7,
  "questions": [
    {
      "title": "Best fruit",
      "tally_type": "plurality-at-large",
      "num_winners": 1,
      "min": 0,
      "max": 1,
      "answers": [
        {"id": 1, "text": "Banana", "total_count": 3, "winner_position": 0},
        {"id": 0, "text": "Apple", "total_count": 2, "winner_position": null},
        {"id": 2, "text": "Cherry", "total_count": 1, "winner_position": null}
      ],
      "totals": {"valid_votes": 6, "blank_votes": 1, "null_votes": 0}
    },
    {
      "title": "Ranking",
      "tally_type": "borda",
      "num_winners": 2,
      "min": 1,
      "max": 3,
      "answers": [
        {"id": 0, "text": "A", "total_count": 5, "winner_position": 0},
        {"id": 1, "text": "B", "total_count": 5, "winner_position": 1},
        {"id": 2, "text": "C", "total_count": 1, "winner_position": null}
      ],
      "totals": {"valid_votes": 2, "blank_votes": 0, "null_votes": 0}
    }
  ]
}`

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func decodeArray(t *testing.T, s string) record.Array {
	t.Helper()
	v, err := record.Decode([]byte(s))
	require.NoError(t, err)
	arr, ok := v.(record.Array)
	require.True(t, ok)
	return arr
}

func decodeObject(t *testing.T, s string) record.Object {
	t.Helper()
	v, err := record.Decode([]byte(s))
	require.NoError(t, err)
	obj, ok := v.(record.Object)
	require.True(t, ok)
	return obj
}

func talliedData(t *testing.T) *engine.DataSet {
	t.Helper()
	entry := engine.NewEntry(nil, decodeArray(t, testutil.SingleQuestion))
	entry.Record[engine.FieldResults] = decodeObject(t, tallied)
	return &engine.DataSet{Entries: []*engine.Entry{entry}}
}

func render(t *testing.T, f Format, data *engine.DataSet) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f, data))
	return buf.Bytes()
}

func TestWrite_Golden(t *testing.T) {
	tests := []struct {
		name   string
		format Format
	}{
		{"results_json", FormatJSON},
		{"results_csv", FormatCSV},
		{"results_tsv", FormatTSV},
		{"results_pretty", FormatPretty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newGoldie(t).Assert(t, tt.name, render(t, tt.format, talliedData(t)))
		})
	}
}

func TestWrite_JSONWithoutResultsPrintsQuestions(t *testing.T) {
	data := &engine.DataSet{Entries: []*engine.Entry{
		engine.NewEntry(nil, decodeArray(t, testutil.SingleQuestion)),
	}}

	out := render(t, FormatJSON, data)

	assert.JSONEq(t, testutil.SingleQuestion, string(out))
	newGoldie(t).Assert(t, "questions_json", out)
}

func TestWrite_DoesNotMutate(t *testing.T) {
	data := talliedData(t)
	before := record.Clone(data.First().Record)

	for _, f := range Formats() {
		render(t, Format(f), data)
	}

	assert.Equal(t, before, data.First().Record)
}

func TestWrite_TabularNeedsResults(t *testing.T) {
	data := &engine.DataSet{Entries: []*engine.Entry{
		engine.NewEntry(nil, decodeArray(t, testutil.SingleQuestion)),
	}}

	for _, f := range []Format{FormatCSV, FormatTSV, FormatPretty} {
		err := Write(&bytes.Buffer{}, f, data)
		assert.ErrorIs(t, err, ErrNoResults, "format %s", f)
	}
}

func TestWrite_EmptyDataSet(t *testing.T) {
	err := Write(&bytes.Buffer{}, FormatJSON, &engine.DataSet{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset is empty")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Pretty ")
	require.NoError(t, err)
	assert.Equal(t, FormatPretty, f)

	_, err = ParseFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv, json, pretty, tsv")
}

func TestShare(t *testing.T) {
	assert.Equal(t, "0.00%", share(3, 0))
	assert.Equal(t, "33.33%", share(2, 6))
	assert.Equal(t, "16.67%", share(1, 6))
}
