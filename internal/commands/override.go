package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rentledger/rentledger/internal/model"
)

func newOverrideCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Record and inspect manual corrections",
	}
	cmd.AddCommand(newOverrideSetCommand(a))
	cmd.AddCommand(newOverrideImportCommand(a))
	cmd.AddCommand(newOverrideHistoryCommand(a))
	return cmd
}

func newOverrideSetCommand(a *app) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "set <transaction-id> <category|property> <new-value>",
		Short: "Record one correction; an empty value clears a property assignment",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := a.overrides.Record(cmd.Context(), args[0], model.OverrideField(args[1]), args[2], actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded #%d: %s %s %q -> %q\n",
				entry.Seq, entry.TransactionID, entry.Field, entry.OldValue, entry.NewValue)
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "who is making this correction (required)")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func newOverrideImportCommand(a *app) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "import <corrections.csv>",
		Short: "Apply a bulk-correction file; bad rows are reported, good rows persist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readBulkEntries(args[0])
			if err != nil {
				return err
			}
			res := a.overrides.BulkApply(cmd.Context(), entries, actor)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "applied %d, failed %d\n", res.SuccessCount, res.ErrorCount)
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  %s: %s\n", e.TransactionID, e.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "who is making these corrections (required)")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func newOverrideHistoryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <transaction-id>",
		Short: "Show the full correction history for one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.overrides.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no overrides recorded")
				return nil
			}
			printOverrides(cmd, entries)
			return nil
		},
	}
	return cmd
}

func printOverrides(cmd *cobra.Command, entries []model.Override) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tWHEN\tTRANSACTION\tFIELD\tOLD\tNEW\tACTOR")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%q\t%q\t%s\n",
			e.Seq,
			e.Timestamp.Format(time.RFC3339),
			e.TransactionID,
			e.Field,
			e.OldValue,
			e.NewValue,
			e.Actor)
	}
	_ = w.Flush()
}
