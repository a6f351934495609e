package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/andreyvit/tablesync"
)

var opColors = map[tablesync.Op]*color.Color{
	tablesync.OpDeleteSection: color.New(color.FgRed, color.Bold),
	tablesync.OpInsertSection: color.New(color.FgGreen, color.Bold),
	tablesync.OpMoveRow:       color.New(color.FgCyan),
	tablesync.OpDeleteRow:     color.New(color.FgRed),
	tablesync.OpInsertRow:     color.New(color.FgGreen),
	tablesync.OpUpdateRow:     color.New(color.FgYellow),
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}

func colorOp(op tablesync.Op) string {
	c, ok := opColors[op]
	if !ok {
		return op.String()
	}

	return c.Sprint(op.String())
}

// renderBatch prints changes as a table of op, position and destination.
func renderBatch(w io.Writer, title string, changes []tablesync.Change) {
	tbl := newTable()
	tbl.SetTitle(title)
	tbl.AppendHeader(table.Row{"#", "Op", "At", "To"})

	for i, chg := range changes {
		var at, to string

		switch {
		case chg.Op().IsSection():
			at = strconv.Itoa(chg.SectionIndex())
		case chg.Op() == tablesync.OpMoveRow:
			at, to = chg.From().String(), chg.To().String()
		default:
			at = chg.At().String()
		}

		tbl.AppendRow(table.Row{i + 1, colorOp(chg.Op()), at, to})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("%d changes", len(changes))})
	fmt.Fprintln(w, tbl.Render())
}

// renderSections prints the rows of a data source grouped by section.
func renderSections(w io.Writer, src tablesync.DataSource[string]) {
	tbl := newTable()
	tbl.SetTitle("Sections")
	tbl.AppendHeader(table.Row{"Section", "Title", "Row", "Item"})

	for s := range src.NumberOfSections() {
		title, _ := src.TitleForHeader(s)
		for r := range src.NumberOfItems(s) {
			tbl.AppendRow(table.Row{s, title, r, src.Item(tablesync.Pos(s, r))})
		}
	}

	fmt.Fprintln(w, tbl.Render())
}
