// Package tally reads the decoded tally layout found inside an extracted
// archive.
//
// Layout:
//
//	questions_json               JSON array of question objects
//	<i>-<name>/plaintexts_json   ballots of question i, one per line
//
// Each ballot line is a JSON array of answer ids in preference order; an
// empty array is a blank ballot.
package tally

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/villawad/agora-results/internal/record"
)

const (
	// QuestionsFile is the name of the questions document at the archive root.
	QuestionsFile = "questions_json"
	// BallotsFile is the name of the per-question ballot file.
	BallotsFile = "plaintexts_json"
)

// Load decodes questions_json from an extracted tally directory.
func Load(dir string) (record.Array, error) {
	data, err := os.ReadFile(filepath.Join(dir, QuestionsFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", QuestionsFile, err)
	}
	v, err := record.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", QuestionsFile, err)
	}
	questions, ok := v.(record.Array)
	if !ok {
		return nil, fmt.Errorf("decode %s: expected array, got %s", QuestionsFile, record.TypeName(v))
	}
	return questions, nil
}

// QuestionDir returns the ballot directory of question i.
func QuestionDir(dir string, i int) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, strconv.Itoa(i)+"-*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			return m, nil
		}
	}
	return "", fmt.Errorf("no ballot directory for question %d", i)
}

// Ballot is one line of a plaintexts file.
type Ballot struct {
	// Line is the 1-based line number in the ballots file.
	Line int
	// Choices holds answer ids in preference order.
	Choices []int64
	// Err is set when the line is not a JSON array of integers.
	Err error
}

// Blank reports whether the ballot selects nothing.
func (b Ballot) Blank() bool {
	return b.Err == nil && len(b.Choices) == 0
}

// ReadBallots calls fn for every ballot of question i, in file order.
// Empty lines are skipped. An error from fn stops the scan.
func ReadBallots(dir string, i int, fn func(Ballot) error) error {
	qdir, err := QuestionDir(dir, i)
	if err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(qdir, BallotsFile))
	if err != nil {
		return fmt.Errorf("open ballots of question %d: %w", i, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if err := fn(parseBallot(line, text)); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read ballots of question %d: %w", i, err)
	}
	return nil
}

func parseBallot(line int, text string) Ballot {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var raw []json.Number
	if err := dec.Decode(&raw); err != nil {
		return Ballot{Line: line, Err: fmt.Errorf("malformed ballot: %w", err)}
	}
	choices := make([]int64, len(raw))
	for j, n := range raw {
		v, err := n.Int64()
		if err != nil {
			return Ballot{Line: line, Err: fmt.Errorf("malformed ballot: choice %d is not an integer", j)}
		}
		choices[j] = v
	}
	return Ballot{Line: line, Choices: choices}
}
