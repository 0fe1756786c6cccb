package pipes

import (
	"context"
	"fmt"
	"sort"

	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/record"
)

// SortNonIterative orders the answers of each result question by
// total_count, highest first, breaking ties by ascending answer id, and
// marks the first num_winners answers with their winner_position. The
// other answers get a null winner_position.
//
// Parameters:
//   - question_indexes ([]int, default all questions)
func SortNonIterative(_ context.Context, data *engine.DataSet, params engine.Params) error {
	if err := params.Check("question_indexes"); err != nil {
		return err
	}

	for i, entry := range data.Entries {
		questions, _, err := resultQuestions(entry)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		indexes, err := selectQuestions(params, len(questions))
		if err != nil {
			return err
		}
		for _, qi := range indexes {
			if err := sortQuestion(questions[qi]); err != nil {
				return fmt.Errorf("entry %d question %d: %w", i, qi, err)
			}
		}
	}
	return nil
}

func sortQuestion(q record.Object) error {
	answers, err := answerObjects(q)
	if err != nil {
		return err
	}
	numWinners, err := q.IntOr("num_winners", 1)
	if err != nil {
		return err
	}

	type ranked struct {
		obj   record.Object
		id    int64
		count int64
	}
	rows := make([]ranked, len(answers))
	for i, a := range answers {
		id, err := a.Int("id")
		if err != nil {
			return fmt.Errorf("answer %d: %w", i, err)
		}
		count, err := a.Int("total_count")
		if err != nil {
			return fmt.Errorf("answer %d: %w", i, err)
		}
		rows[i] = ranked{obj: a, id: id, count: count}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].id < rows[j].id
	})

	sorted := make(record.Array, len(rows))
	for pos, r := range rows {
		if int64(pos) < numWinners {
			r.obj["winner_position"] = record.Int(pos)
		} else {
			r.obj["winner_position"] = record.Null{}
		}
		sorted[pos] = r.obj
	}
	q["answers"] = sorted
	return nil
}
