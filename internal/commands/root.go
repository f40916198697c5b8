// Package commands wires the CLI: config, logging, database, and services
// behind cobra subcommands.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root CLI command with all subcommands
// registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "rentledger",
		Short: "Classify and reconcile rental property bank transactions",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	rootCmd.AddCommand(newProcessCommand(a))
	rootCmd.AddCommand(newReviewCommand(a))
	rootCmd.AddCommand(newOverrideCommand(a))
	rootCmd.AddCommand(newAuditCommand(a))
	rootCmd.AddCommand(newPropertyCommand(a))

	return rootCmd
}
