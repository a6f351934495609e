// Package main provides the entry point for the tablesync CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andreyvit/tablesync/cmd/tablesync/commands"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	g := &commands.Globals{}

	rootCmd := &cobra.Command{
		Use:   "tablesync",
		Short: "Coalesce table view changes into structural and update batches",
		Long: `tablesync turns raw streams of row and section changes into the two
batches a table view can apply safely: structural changes first, then
updates re-targeted to post-change positions.

Commands:
  correct   Split a change batch from a YAML file
  replay    Run scripted transactions against an observed table`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.ConfigPath, "config", "", "config file (default .tablesync.yaml in CWD or $HOME)")
	rootCmd.PersistentFlags().StringVar(&g.DBPath, "db", "", "bolt database file for replay (default in-memory)")
	rootCmd.PersistentFlags().BoolVar(&g.NoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(commands.NewCorrectCommand(g))
	rootCmd.AddCommand(commands.NewReplayCommand(g))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tablesync %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
