package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andreyvit/tablesync"
	"github.com/andreyvit/tablesync/internal/scenario"
)

const (
	correctCmdUse   = "correct <batch.yaml>"
	correctCmdShort = "Split a change batch into structural changes and corrected updates"
	correctYAMLFlag = "yaml"
)

// NewCorrectCommand creates the correct subcommand.
func NewCorrectCommand(g *Globals) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   correctCmdUse,
		Short: correctCmdShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			changes, err := scenario.ReadBatchFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if !asYAML {
				renderBatch(out, "Input", changes)
			}

			var n int
			var sinkErr error
			u := tablesync.NewUpdater(tablesync.SinkFunc(func(batch []tablesync.Change) {
				n++
				if asYAML {
					fmt.Fprintf(out, "# batch %d\n", n)
					if err := scenario.WriteBatch(out, batch); err != nil && sinkErr == nil {
						sinkErr = err
					}
					return
				}
				renderBatch(out, fmt.Sprintf("Batch %d", n), batch)
			}), tablesync.UpdaterOptions{
				Logf:    logf(cmd.ErrOrStderr(), cfg.Output.Verbose),
				Verbose: cfg.Output.Verbose,
			})

			u.BeginUpdates()
			for _, chg := range changes {
				u.Apply(chg)
			}
			u.EndUpdates()

			return sinkErr
		},
	}

	cmd.Flags().BoolVar(&asYAML, correctYAMLFlag, false, "print batches as YAML instead of tables")

	return cmd
}
