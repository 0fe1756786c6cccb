// Package join matches the answers of several result files by text.
//
// It helps build withdraw or merge configurations when the same election
// was tallied in parts whose answer ids differ.
package join

import (
	"fmt"
	"os"

	"github.com/villawad/agora-results/internal/record"
)

// Match points at an answer of an earlier result file carrying the same
// text.
type Match struct {
	TallyID     int    `json:"tally_id"`
	QuestionID  int    `json:"question_id"`
	AnswerID    int64  `json:"answer_id"`
	AnswerValue string `json:"answer_value"`
}

// Corrections holds, per question of the last file, the matches of each
// answer keyed by its id.
type Corrections []map[string][]Match

// Load reads a result file as written by the json renderer. Both a
// results object and a bare list of questions are accepted.
func Load(path string) ([]record.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := record.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	var questions record.Array
	switch val := v.(type) {
	case record.Array:
		questions = val
	case record.Object:
		if questions, err = val.Array("questions"); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: expected object or array, got %s", path, record.TypeName(v))
	}
	objs, err := questions.Objects()
	if err != nil {
		return nil, fmt.Errorf("%s: questions: %w", path, err)
	}
	return objs, nil
}

// ByName matches every answer of the last result against the answers of
// all previous results, question by question. Answer texts are compared
// after NFC normalization.
func ByName(results [][]record.Object) (Corrections, error) {
	if len(results) == 0 {
		return Corrections{}, nil
	}

	// index[i][q] maps normalized text to answer id for result i.
	index := make([][]map[string]int64, len(results))
	for i, questions := range results {
		index[i] = make([]map[string]int64, len(questions))
		for qi, q := range questions {
			byText := make(map[string]int64)
			err := eachAnswer(q, func(id int64, text string) {
				byText[record.NormalizeText(text)] = id
			})
			if err != nil {
				return nil, fmt.Errorf("result %d question %d: %w", i, qi, err)
			}
			index[i][qi] = byText
		}
	}

	last := len(results) - 1
	out := make(Corrections, len(results[last]))
	for qi, q := range results[last] {
		matches := make(map[string][]Match)
		err := eachAnswer(q, func(id int64, text string) {
			found := []Match{}
			for j := 0; j < last; j++ {
				if qi >= len(index[j]) {
					continue
				}
				if other, ok := index[j][qi][record.NormalizeText(text)]; ok {
					found = append(found, Match{
						TallyID:     j,
						QuestionID:  qi,
						AnswerID:    other,
						AnswerValue: text,
					})
				}
			}
			matches[fmt.Sprint(id)] = found
		})
		if err != nil {
			return nil, fmt.Errorf("result %d question %d: %w", last, qi, err)
		}
		out[qi] = matches
	}
	return out, nil
}

func eachAnswer(q record.Object, fn func(id int64, text string)) error {
	arr, err := q.Array("answers")
	if err != nil {
		return err
	}
	answers, err := arr.Objects()
	if err != nil {
		return err
	}
	for ai, a := range answers {
		id, err := a.Int("id")
		if err != nil {
			return fmt.Errorf("answer %d: %w", ai, err)
		}
		text, err := a.String("text")
		if err != nil {
			return fmt.Errorf("answer %d: %w", ai, err)
		}
		fn(id, text)
	}
	return nil
}
