package pipes

import (
	"context"
	"fmt"

	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/record"
	"github.com/villawad/agora-results/internal/tally"
)

// Tally types understood by DoTallies.
const (
	TallyPlurality = "plurality-at-large"
	TallyBorda     = "borda"
)

// DoTallies counts the ballots of every entry and stores the aggregate in
// the entry's "results" field, replacing any previous results.
//
// Parameters:
//   - ignore_invalid_votes (bool, default true): count invalid ballots as
//     null votes instead of failing the step.
//
// Counts are recomputed from the extracted ballots each time, so running
// the unit twice yields the same results.
func DoTallies(ctx context.Context, data *engine.DataSet, params engine.Params) error {
	if err := params.Check("ignore_invalid_votes"); err != nil {
		return err
	}
	ignoreInvalid, err := params.Bool("ignore_invalid_votes", true)
	if err != nil {
		return err
	}

	for i, entry := range data.Entries {
		results, err := tallyEntry(ctx, entry, ignoreInvalid)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		entry.Record[engine.FieldResults] = results
	}
	return nil
}

func tallyEntry(ctx context.Context, entry *engine.Entry, ignoreInvalid bool) (record.Object, error) {
	questionsVal, err := entry.Record.Array(engine.FieldQuestions)
	if err != nil {
		return nil, err
	}
	questions, err := questionsVal.Objects()
	if err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}

	out := make(record.Array, len(questions))
	var totalVotes int64
	for qi, q := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, ballots, err := tallyQuestion(entry.Path(), qi, q, ignoreInvalid)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", qi, err)
		}
		if qi == 0 {
			totalVotes = ballots
		}
		out[qi] = res
	}

	return record.Object{
		"total_votes": record.Int(totalVotes),
		"questions":   out,
	}, nil
}

// counter accumulates one question's tally.
type counter struct {
	tallyType string
	min, max  int64
	index     map[int64]int // answer id -> position in answers
	counts    []int64
	valid     int64
	blank     int64
	invalid   int64
}

func newCounter(q record.Object) (*counter, error) {
	tallyType, err := q.StringOr("tally_type", TallyPlurality)
	if err != nil {
		return nil, err
	}
	if tallyType != TallyPlurality && tallyType != TallyBorda {
		return nil, fmt.Errorf("unsupported tally_type %q", tallyType)
	}
	answersVal, err := q.Array("answers")
	if err != nil {
		return nil, err
	}
	answers, err := answersVal.Objects()
	if err != nil {
		return nil, fmt.Errorf("answers: %w", err)
	}

	c := &counter{
		tallyType: tallyType,
		index:     make(map[int64]int, len(answers)),
		counts:    make([]int64, len(answers)),
	}
	for pos, a := range answers {
		id, err := a.Int("id")
		if err != nil {
			return nil, fmt.Errorf("answer %d: %w", pos, err)
		}
		if _, dup := c.index[id]; dup {
			return nil, fmt.Errorf("duplicate answer id %d", id)
		}
		c.index[id] = pos
	}
	if c.min, err = q.IntOr("min", 0); err != nil {
		return nil, err
	}
	if c.max, err = q.IntOr("max", int64(len(answers))); err != nil {
		return nil, err
	}
	return c, nil
}

// validate reports why a ballot cannot be counted, or nil.
func (c *counter) validate(b tally.Ballot) error {
	if b.Err != nil {
		return b.Err
	}
	n := int64(len(b.Choices))
	if n == 0 {
		return nil
	}
	if n > c.max {
		return fmt.Errorf("%d choices exceed max %d", n, c.max)
	}
	if n < c.min {
		return fmt.Errorf("%d choices below min %d", n, c.min)
	}
	seen := make(map[int64]bool, n)
	for _, id := range b.Choices {
		if _, ok := c.index[id]; !ok {
			return fmt.Errorf("unknown answer id %d", id)
		}
		if seen[id] {
			return fmt.Errorf("answer id %d chosen twice", id)
		}
		seen[id] = true
	}
	return nil
}

func (c *counter) add(b tally.Ballot) {
	if len(b.Choices) == 0 {
		c.blank++
		return
	}
	c.valid++
	for pos, id := range b.Choices {
		switch c.tallyType {
		case TallyBorda:
			c.counts[c.index[id]] += c.max - int64(pos)
		default:
			c.counts[c.index[id]]++
		}
	}
}

func tallyQuestion(dir string, qi int, q record.Object, ignoreInvalid bool) (record.Object, int64, error) {
	c, err := newCounter(q)
	if err != nil {
		return nil, 0, err
	}

	var ballots int64
	err = tally.ReadBallots(dir, qi, func(b tally.Ballot) error {
		ballots++
		if err := c.validate(b); err != nil {
			if !ignoreInvalid {
				return fmt.Errorf("invalid ballot on line %d: %w", b.Line, err)
			}
			c.invalid++
			return nil
		}
		c.add(b)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	res := record.Clone(q).(record.Object)
	answers := res["answers"].(record.Array)
	for pos, a := range answers {
		ans := a.(record.Object)
		ans["total_count"] = record.Int(c.counts[pos])
		ans["winner_position"] = record.Null{}
	}
	res["totals"] = record.Object{
		"valid_votes": record.Int(c.valid),
		"blank_votes": record.Int(c.blank),
		"null_votes":  record.Int(c.invalid),
	}
	return res, ballots, nil
}

// resultQuestions returns the result questions of entry.
func resultQuestions(entry *engine.Entry) ([]record.Object, record.Object, error) {
	results, err := entry.Record.Object(engine.FieldResults)
	if err != nil {
		return nil, nil, err
	}
	qs, err := results.Array("questions")
	if err != nil {
		return nil, nil, fmt.Errorf("results: %w", err)
	}
	questions, err := qs.Objects()
	if err != nil {
		return nil, nil, fmt.Errorf("results questions: %w", err)
	}
	return questions, results, nil
}

// answerObjects returns the answers of a result question.
func answerObjects(q record.Object) ([]record.Object, error) {
	arr, err := q.Array("answers")
	if err != nil {
		return nil, err
	}
	return arr.Objects()
}

// selectQuestions returns the indexes named by the question_indexes
// parameter, or every index when it is absent.
func selectQuestions(params engine.Params, n int) ([]int, error) {
	raw, present, err := params.Ints("question_indexes")
	if err != nil {
		return nil, err
	}
	if !present {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	out := make([]int, len(raw))
	for i, v := range raw {
		if v < 0 || v >= int64(n) {
			return nil, fmt.Errorf("question index %d out of range (have %d questions)", v, n)
		}
		out[i] = int(v)
	}
	return out, nil
}
