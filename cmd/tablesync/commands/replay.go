package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/andreyvit/tablesync"
	"github.com/andreyvit/tablesync/internal/config"
	"github.com/andreyvit/tablesync/internal/scenario"
)

const (
	replayCmdUse   = "replay <scenario.yaml>"
	replayCmdShort = "Run scripted transactions and print the batches a bound view receives"
)

// NewReplayCommand creates the replay subcommand.
func NewReplayCommand(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   replayCmdUse,
		Short: replayCmdShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			s, err := scenario.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			return runReplay(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, s)
		},
	}
}

func openDB(cfg *config.Config, log func(string, ...any)) (*tablesync.DB, error) {
	opt := tablesync.Options{
		Logf:    log,
		Verbose: cfg.Output.Verbose,
		Timeout: cfg.DB.Timeout,
	}

	if cfg.DB.Path == "" {
		return tablesync.OpenMemory(opt), nil
	}

	mmap, err := cfg.MmapBytes()
	if err != nil {
		return nil, err
	}

	opt.MmapSize = mmap

	return tablesync.Open(cfg.DB.Path, opt)
}

func runReplay(out, errOut io.Writer, cfg *config.Config, s *scenario.Scenario) error {
	log := logf(errOut, cfg.Output.Verbose)

	db, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	tbl := tablesync.DefineTable(s.Table)

	var txIdx, batchIdx int
	sink := tablesync.SinkFunc(func(batch []tablesync.Change) {
		batchIdx++
		renderBatch(out, fmt.Sprintf("tx %d, batch %d", txIdx, batchIdx), batch)
	})

	u := tablesync.NewUpdater(sink, tablesync.UpdaterOptions{
		Logf:    log,
		Verbose: cfg.Output.Verbose,
		Metrics: tablesync.NewMetrics(reg),
	})

	res := tablesync.NewResults(db, scenario.Query(tbl), formatRow, u)

	err = res.PerformFetch()
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer res.Close()

	for i, tx := range s.Transactions {
		txIdx, batchIdx = i+1, 0

		err := db.Tx(true, func(dtx *tablesync.Tx) error {
			tx.Apply(dtx, tbl)
			return nil
		})
		if err != nil {
			return fmt.Errorf("transaction %d: %w", txIdx, err)
		}

		if batchIdx == 0 {
			fmt.Fprintf(out, "tx %d: no visible changes\n", txIdx)
		}
	}

	renderSections(out, res)
	fmt.Fprintf(out, "%s transactions, %s reads, %s on disk\n",
		humanize.Comma(int64(db.WriteCount.Load())),
		humanize.Comma(int64(db.ReadCount.Load())),
		humanize.Bytes(uint64(db.Size())))

	if cfg.Output.Metrics {
		return renderMetrics(out, reg)
	}

	return nil
}

func formatRow(row *scenario.Row) string {
	return fmt.Sprintf("%s (rank %d)", row.Title, row.Rank)
}

func renderMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	tbl := newTable()
	tbl.SetTitle("Metrics")
	tbl.AppendHeader(table.Row{"Metric", "Labels", "Value"})

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}

			tbl.AppendRow(table.Row{mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue()})
		}
	}

	fmt.Fprintln(w, tbl.Render())

	return nil
}
