package pipes

import (
	"context"
	"fmt"

	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/record"
)

// WithdrawAnswers removes withdrawn candidates from one result question of
// every entry. Run it after DoTallies and before SortNonIterative so
// winners are assigned among the remaining answers.
//
// Parameters:
//   - question_index (int, required)
//   - answer_ids ([]int, required)
func WithdrawAnswers(_ context.Context, data *engine.DataSet, params engine.Params) error {
	if err := params.Check("question_index", "answer_ids"); err != nil {
		return err
	}
	if _, ok := params["question_index"]; !ok {
		return fmt.Errorf("missing parameter %q", "question_index")
	}
	qi, err := params.Int("question_index", 0)
	if err != nil {
		return err
	}
	ids, present, err := params.Ints("answer_ids")
	if err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("missing parameter %q", "answer_ids")
	}
	withdrawn := make(map[int64]bool, len(ids))
	for _, id := range ids {
		withdrawn[id] = true
	}

	for i, entry := range data.Entries {
		questions, _, err := resultQuestions(entry)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if qi < 0 || qi >= int64(len(questions)) {
			return fmt.Errorf("entry %d: question index %d out of range", i, qi)
		}
		if err := withdraw(questions[qi], withdrawn); err != nil {
			return fmt.Errorf("entry %d question %d: %w", i, qi, err)
		}
	}
	return nil
}

func withdraw(q record.Object, withdrawn map[int64]bool) error {
	answers, err := answerObjects(q)
	if err != nil {
		return err
	}

	found := make(map[int64]bool, len(withdrawn))
	kept := make(record.Array, 0, len(answers))
	for i, a := range answers {
		id, err := a.Int("id")
		if err != nil {
			return fmt.Errorf("answer %d: %w", i, err)
		}
		if withdrawn[id] {
			found[id] = true
			continue
		}
		kept = append(kept, a)
	}
	for id := range withdrawn {
		if !found[id] {
			return fmt.Errorf("answer id %d not found", id)
		}
	}
	q["answers"] = kept
	return nil
}
