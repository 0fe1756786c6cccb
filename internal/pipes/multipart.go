package pipes

import (
	"context"
	"fmt"

	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/record"
)

// MergeResults sums the results of every entry into the first one and
// removes the other entries from the dataset. Answers are matched per
// question by NFC-normalized text, so tallies decoded from different
// archives can be combined even when answer ids differ.
//
// The removed entries' directories are still released at the end of the
// run: ownership belongs to the workspace, not the dataset.
func MergeResults(_ context.Context, data *engine.DataSet, params engine.Params) error {
	if err := params.Check(); err != nil {
		return err
	}
	if data.Len() < 2 {
		return nil
	}

	base := data.First()
	baseQuestions, baseResults, err := resultQuestions(base)
	if err != nil {
		return fmt.Errorf("entry 0: %w", err)
	}
	totalVotes, err := baseResults.IntOr("total_votes", 0)
	if err != nil {
		return fmt.Errorf("entry 0: %w", err)
	}

	for i, entry := range data.Entries[1:] {
		idx := i + 1
		questions, results, err := resultQuestions(entry)
		if err != nil {
			return fmt.Errorf("entry %d: %w", idx, err)
		}
		if len(questions) != len(baseQuestions) {
			return fmt.Errorf("entry %d: has %d questions, entry 0 has %d", idx, len(questions), len(baseQuestions))
		}
		for qi := range questions {
			if err := mergeQuestion(baseQuestions[qi], questions[qi]); err != nil {
				return fmt.Errorf("entry %d question %d: %w", idx, qi, err)
			}
		}
		votes, err := results.IntOr("total_votes", 0)
		if err != nil {
			return fmt.Errorf("entry %d: %w", idx, err)
		}
		totalVotes += votes
	}

	baseResults["total_votes"] = record.Int(totalVotes)
	base.Record["merged_entries"] = record.Int(data.Len())
	data.Entries = data.Entries[:1]
	return nil
}

func mergeQuestion(dst, src record.Object) error {
	dstAnswers, err := answerObjects(dst)
	if err != nil {
		return err
	}
	srcAnswers, err := answerObjects(src)
	if err != nil {
		return err
	}

	byText, err := indexByText(dstAnswers)
	if err != nil {
		return err
	}
	srcByText, err := indexByText(srcAnswers)
	if err != nil {
		return err
	}

	// Matching is one-to-one: texts are unique on both sides, so every
	// target receives at most one source count.
	for i, a := range srcAnswers {
		text, _ := a.String("text")
		if _, ok := byText[record.NormalizeText(text)]; !ok {
			return fmt.Errorf("answer %q has no match", text)
		}
		if _, err := a.Int("total_count"); err != nil {
			return fmt.Errorf("answer %d: %w", i, err)
		}
	}
	for key, a := range srcByText {
		if err := addInt(byText[key], a, "total_count"); err != nil {
			return err
		}
	}

	dstTotals, err := dst.Object("totals")
	if err != nil {
		return err
	}
	srcTotals, err := src.Object("totals")
	if err != nil {
		return err
	}
	for _, key := range []string{"valid_votes", "blank_votes", "null_votes"} {
		if err := addInt(dstTotals, srcTotals, key); err != nil {
			return err
		}
	}
	return nil
}

// indexByText maps normalized answer texts to answers, rejecting
// duplicates.
func indexByText(answers []record.Object) (map[string]record.Object, error) {
	byText := make(map[string]record.Object, len(answers))
	for i, a := range answers {
		text, err := a.String("text")
		if err != nil {
			return nil, fmt.Errorf("answer %d: %w", i, err)
		}
		key := record.NormalizeText(text)
		if _, dup := byText[key]; dup {
			return nil, fmt.Errorf("duplicate answer text %q", text)
		}
		byText[key] = a
	}
	return byText, nil
}

// addInt adds src[key] to dst[key].
func addInt(dst, src record.Object, key string) error {
	a, err := dst.Int(key)
	if err != nil {
		return err
	}
	b, err := src.Int(key)
	if err != nil {
		return err
	}
	dst[key] = record.Int(a + b)
	return nil
}
