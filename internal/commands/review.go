package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rentledger/rentledger/internal/model"
	"github.com/rentledger/rentledger/internal/service"
)

func newReviewCommand(a *app) *cobra.Command {
	var (
		year     int
		highOnly bool
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Show the review queue, most uncertain rows first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.reconciler.Replay(cmd.Context(), service.RunOptions{Year: year})
			if err != nil {
				return err
			}

			queue := report.ReviewQueue
			if highOnly {
				var kept []model.AttributedRow
				for _, row := range queue {
					if row.Priority == model.ReviewHigh {
						kept = append(kept, row)
					}
				}
				queue = kept
			}
			if len(queue) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "review queue is empty")
				return nil
			}

			return printQueue(cmd, queue)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "limit to one tax year")
	cmd.Flags().BoolVar(&highOnly, "high", false, "only show high-priority rows")
	return cmd
}

func printQueue(cmd *cobra.Command, queue []model.AttributedRow) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tCATEGORY\tCONF\tPROPERTY\tCONF\tPRIORITY\tREASON")
	for _, row := range queue {
		prop := "-"
		if row.PropertyID != nil {
			prop = *row.PropertyID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\t%.2f\t%s\t%s\n",
			row.Transaction.ID,
			row.Transaction.Date.Format("2006-01-02"),
			formatCents(row.Transaction.AmountCents),
			row.Category,
			row.CategoryConfidence,
			prop,
			row.PropertyConfidence,
			row.Priority,
			row.MatchReason)
	}
	return w.Flush()
}
