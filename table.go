package tablesync

import (
	"fmt"
)

type (
	// Table is a named collection of msgpack-encoded rows keyed by string.
	Table struct {
		name            string
		suppressContent bool
	}

	// RowChange describes one row mutation made by a committed transaction.
	RowChange struct {
		Table *Table
		Op    RowOp
		Key   string
		// Existed is set for puts that replaced an existing row.
		Existed bool
	}

	RowOp int
)

const (
	RowPut    RowOp = 1
	RowDelete RowOp = 2
)

func DefineTable(name string) *Table {
	if name == "" {
		panic("tablesync: empty table name")
	}
	return &Table{name: name}
}

func (tbl *Table) Name() string {
	return tbl.name
}

// SuppressContentWhenLogging keeps row contents out of verbose logs.
func (tbl *Table) SuppressContentWhenLogging() *Table {
	tbl.suppressContent = true
	return tbl
}

func (tbl *Table) String() string {
	return tbl.name
}

func (v RowOp) String() string {
	switch v {
	case RowPut:
		return "put"
	case RowDelete:
		return "delete"
	default:
		return fmt.Sprintf("invalid row op %d", int(v))
	}
}

// touches reports whether any of the changes belongs to tbl.
func touches(changes []RowChange, tbl *Table) bool {
	for _, chg := range changes {
		if chg.Table == tbl {
			return true
		}
	}
	return false
}
