package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/puff/AsmResolver/internal/cli/commands"
)

var (
	// Version information - will be set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "asmtool",
		Short: "Inspect and rewrite CLR metadata images",
		Long: `asmtool loads a metadata image into a token-addressed object graph,
lets you inspect its types, members and code, and rebuilds it under a
configurable token preservation policy.`,
	}

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(commands.NewDumpCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewRewriteCommand())
	rootCmd.AddCommand(commands.NewCompletionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
