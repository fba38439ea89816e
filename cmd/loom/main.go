package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/loom/internal/cli"
	"github.com/example/loom/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "loom",
		Short:   "loom - query engine for task plan snapshots",
		Version: version.String(),
		Long: `loom stores plan snapshots (tasks, states, owners and relation edges)
and runs matcher queries against them: predicate and model filters resolved
through an incrementally maintained classification index, with optional
narrowing to the roots of the matched subgraph.`,
	}

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.PlanCmd())
	rootCmd.AddCommand(cli.QueryCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
