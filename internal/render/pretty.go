package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/villawad/agora-results/internal/record"
)

func writePretty(w io.Writer, rec record.Object) error {
	results, questions, err := resultsOf(rec)
	if err != nil {
		return err
	}
	totalVotes, err := results.IntOr("total_votes", 0)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Total votes: %d\n", totalVotes)
	for qi, q := range questions {
		fmt.Fprintf(w, "\nQuestion %d: %s\n", qi+1, q.title)
		fmt.Fprintf(w, "Tally type: %s, winners: %d\n", q.tallyType, q.numWinners)
		fmt.Fprintf(w, "Valid: %d, blank: %d, null: %d\n\n", q.valid, q.blank, q.null)

		var sum int64
		for _, a := range q.answers {
			sum += a.count
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "WINNER\tANSWER\tVOTES\tSHARE")
		for _, a := range q.answers {
			mark := ""
			if a.winner >= 0 {
				mark = fmt.Sprintf("* %d", a.winner+1)
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", mark, a.text, a.count, share(a.count, sum))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// share formats n as a percentage of total with two decimals.
func share(n, total int64) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(n)*100/float64(total))
}
