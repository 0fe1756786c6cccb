package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/record"
)

// Columns of the csv and tsv formats.
var tableHeader = []string{
	"question_index",
	"question",
	"answer_id",
	"answer",
	"total_count",
	"winner_position",
}

// answerRow is one answer of one result question.
type answerRow struct {
	question int
	title    string
	id       int64
	text     string
	count    int64
	winner   int64 // -1 when the answer did not win
}

// question is a result question flattened for rendering.
type question struct {
	title      string
	tallyType  string
	numWinners int64
	valid      int64
	blank      int64
	null       int64
	answers    []answerRow
}

func resultsOf(rec record.Object) (record.Object, []question, error) {
	if _, ok := rec[engine.FieldResults]; !ok {
		return nil, nil, ErrNoResults
	}
	results, err := rec.Object(engine.FieldResults)
	if err != nil {
		return nil, nil, err
	}
	arr, err := results.Array("questions")
	if err != nil {
		return nil, nil, fmt.Errorf("results: %w", err)
	}
	objs, err := arr.Objects()
	if err != nil {
		return nil, nil, fmt.Errorf("results questions: %w", err)
	}

	out := make([]question, len(objs))
	for qi, q := range objs {
		parsed, err := parseQuestion(qi, q)
		if err != nil {
			return nil, nil, fmt.Errorf("question %d: %w", qi, err)
		}
		out[qi] = parsed
	}
	return results, out, nil
}

func parseQuestion(qi int, q record.Object) (question, error) {
	var out question
	var err error
	if out.title, err = q.StringOr("title", ""); err != nil {
		return out, err
	}
	if out.tallyType, err = q.StringOr("tally_type", "plurality-at-large"); err != nil {
		return out, err
	}
	if out.numWinners, err = q.IntOr("num_winners", 1); err != nil {
		return out, err
	}
	if totals, ok := q["totals"].(record.Object); ok {
		if out.valid, err = totals.IntOr("valid_votes", 0); err != nil {
			return out, err
		}
		if out.blank, err = totals.IntOr("blank_votes", 0); err != nil {
			return out, err
		}
		if out.null, err = totals.IntOr("null_votes", 0); err != nil {
			return out, err
		}
	}

	arr, err := q.Array("answers")
	if err != nil {
		return out, err
	}
	answers, err := arr.Objects()
	if err != nil {
		return out, fmt.Errorf("answers: %w", err)
	}
	out.answers = make([]answerRow, len(answers))
	for ai, a := range answers {
		row := answerRow{question: qi, title: out.title, winner: -1}
		if row.id, err = a.Int("id"); err != nil {
			return out, fmt.Errorf("answer %d: %w", ai, err)
		}
		if row.text, err = a.StringOr("text", ""); err != nil {
			return out, fmt.Errorf("answer %d: %w", ai, err)
		}
		if row.count, err = a.IntOr("total_count", 0); err != nil {
			return out, fmt.Errorf("answer %d: %w", ai, err)
		}
		if v, ok := a["winner_position"].(record.Int); ok {
			row.winner = int64(v)
		}
		out.answers[ai] = row
	}
	return out, nil
}

func writeDelimited(w io.Writer, rec record.Object, comma rune) error {
	_, questions, err := resultsOf(rec)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	for _, q := range questions {
		for _, a := range q.answers {
			winner := ""
			if a.winner >= 0 {
				winner = strconv.FormatInt(a.winner, 10)
			}
			row := []string{
				strconv.Itoa(a.question),
				a.title,
				strconv.FormatInt(a.id, 10),
				a.text,
				strconv.FormatInt(a.count, 10),
				winner,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
