package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rentledger/rentledger/internal/propmatch"
	"github.com/rentledger/rentledger/internal/service"
)

func newProcessCommand(a *app) *cobra.Command {
	var (
		year        int
		depositPath string
		expectPath  string
	)

	cmd := &cobra.Command{
		Use:   "process <bank-export.csv>",
		Short: "Run a bank export through normalization, classification and property matching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}

			var depositMap []service.DepositMapping
			if depositPath != "" {
				depositMap, err = readDepositMap(depositPath)
				if err != nil {
					return err
				}
			}
			var expected []propmatch.ExpectedAmount
			if expectPath != "" {
				expected, err = readExpectedAmounts(expectPath)
				if err != nil {
					return err
				}
			}

			report, err := a.reconciler.Run(cmd.Context(), src, service.RunOptions{
				Year:       year,
				DepositMap: depositMap,
				Expected:   expected,
			})
			if err != nil {
				return err
			}
			printReport(cmd, report)
			if len(report.ReviewQueue) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "needs review:")
				return printQueue(cmd, report.ReviewQueue)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "only process transactions in this tax year")
	cmd.Flags().StringVar(&depositPath, "deposit-map", "", "CSV of exact memo+amount property mappings")
	cmd.Flags().StringVar(&expectPath, "expected", "", "CSV of expected recurring amounts per property")
	return cmd
}

func printReport(cmd *cobra.Command, report service.RunReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s\n", report.RunID)
	fmt.Fprintf(out, "  input rows:      %d\n", report.InputRows)
	fmt.Fprintf(out, "  resolved:        %d\n", len(report.Resolved))
	fmt.Fprintf(out, "  needs review:    %d\n", len(report.ReviewQueue))
	fmt.Fprintf(out, "  unresolved:      %d\n", len(report.Unresolved))
	fmt.Fprintf(out, "  rejected:        %d\n", len(report.Rejected))
	if report.SkippedYear > 0 {
		fmt.Fprintf(out, "  outside year:    %d\n", report.SkippedYear)
	}
	if len(report.Duplicates) > 0 {
		fmt.Fprintf(out, "  duplicate groups: %d\n", len(report.Duplicates))
		for _, d := range report.Duplicates {
			fmt.Fprintf(out, "    rows %v look identical: %s\n", d.Rows, d.Memo)
		}
	}
	for _, u := range report.Unresolved {
		fmt.Fprintf(out, "  unresolved row %d: %s\n", u.Row, u.Reason)
	}
	for _, rej := range report.Rejected {
		fmt.Fprintf(out, "  rejected row %d: %s: %v\n", rej.Row, rej.Field, rej.Err)
	}
	if len(report.SplitProposals) > 0 {
		fmt.Fprintln(out, "possible split payments:")
		for _, p := range report.SplitProposals {
			fmt.Fprintf(out, "  %s: %d deposits totaling %s\n",
				p.PropertyID, len(p.TransactionIDs), formatCents(p.TotalCents))
		}
	}
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
