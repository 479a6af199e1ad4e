package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the Trove admin CLI. Subcommands (bootstrap, tenant, seed) are attached here.
var rootCmd = &cobra.Command{
	Use:           "trove",
	Short:         "Trove CRM admin CLI",
	Long:          "Administrative utilities for Trove CRM (schema bootstrap, tenant management, vocabulary seeding).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
