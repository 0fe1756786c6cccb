package testutil

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// WriteArchive writes a gzip-compressed tarball named name into dir and
// returns its path. Entries are written in sorted order so the bytes are
// deterministic.
func WriteArchive(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		body := files[n]
		hdr := &tar.Header{
			Name:     n,
			Mode:     0o644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", n, err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatalf("write body %s: %v", n, err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return path
}

// SingleQuestion is the questions_json of a one-question plurality tally
// with three answers.
const SingleQuestion = `[
  {
    "title": "Best fruit",
    "tally_type": "plurality-at-large",
    "num_winners": 1,
    "min": 0,
    "max": 1,
    "answers": [
      {"id": 0, "text": "Apple"},
      {"id": 1, "text": "Banana"},
      {"id": 2, "text": "Cherry"}
    ]
  }
]`

// TallyFiles builds the archive contents of a decoded tally: questions is
// the questions_json document and ballots[i] holds the ballot lines of
// question i.
func TallyFiles(questions string, ballots ...[]string) map[string]string {
	files := map[string]string{"questions_json": questions}
	for i, lines := range ballots {
		body := strings.Join(lines, "\n")
		if len(lines) > 0 {
			body += "\n"
		}
		files[filepathForQuestion(i)] = body
	}
	return files
}

// SimpleTally returns a SingleQuestion archive with ballots giving Banana
// 3 votes, Apple 2, Cherry 1, plus one blank ballot.
func SimpleTally() map[string]string {
	return TallyFiles(SingleQuestion, []string{"[1]", "[0]", "[1]", "[2]", "[]", "[1]", "[0]"})
}

func filepathForQuestion(i int) string {
	return fmt.Sprintf("%d-question/plaintexts_json", i)
}
