// Package cli implements ledgerctl, the operator CLI for offline derivation
// and job management.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Derive POS ledgers and manage ledger jobs",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newDeriveCommand())
	rootCmd.AddCommand(newJobsCommand())

	return rootCmd
}
