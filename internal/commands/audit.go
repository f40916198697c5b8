package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rentledger/rentledger/internal/database/repository"
)

func newAuditCommand(a *app) *cobra.Command {
	var (
		txnID   string
		actor   string
		from    string
		to      string
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the correction log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if summary {
				return printActivitySummary(cmd, a)
			}

			filter := repository.AuditFilter{TransactionID: txnID, Actor: actor}
			var err error
			filter.From, filter.To, err = auditRange(from, to)
			if err != nil {
				return err
			}

			entries, err := a.audit.Filter(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no matching entries")
				return nil
			}
			printOverrides(cmd, entries)
			return nil
		},
	}

	cmd.Flags().StringVar(&txnID, "txn", "", "limit to one transaction")
	cmd.Flags().StringVar(&actor, "actor", "", "limit to one actor")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD, inclusive)")
	cmd.Flags().BoolVar(&summary, "summary", false, "show activity totals per actor and day")
	return cmd
}

// auditRange turns the day-granular --from/--to flags into the half-open
// timestamp window the repository filters on. Both flags are inclusive, so
// the end bound is midnight after the --to day.
func auditRange(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	if from != "" {
		day, err := time.Parse("2006-01-02", from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad --from date: %w", err)
		}
		start = day
	}
	if to != "" {
		day, err := time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad --to date: %w", err)
		}
		end = day.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func printActivitySummary(cmd *cobra.Command, a *app) error {
	sum, err := a.audit.Summary(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "total corrections: %d\n", sum.Total)
	if len(sum.ByActor) > 0 {
		fmt.Fprintln(out, "by actor:")
		for _, row := range sum.ByActor {
			fmt.Fprintf(out, "  %s: %d\n", row.Actor, row.Count)
		}
	}
	if len(sum.ByDay) > 0 {
		fmt.Fprintln(out, "by day:")
		for _, row := range sum.ByDay {
			fmt.Fprintf(out, "  %s: %d\n", row.Day, row.Count)
		}
	}
	return nil
}
