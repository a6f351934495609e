package tablesync

import (
	"fmt"
)

type (
	// Position identifies one item in an ordered, sectioned collection.
	Position struct {
		Section int
		Row     int
	}

	// Change describes one structural mutation of a sectioned collection, or an
	// update of a single row. Change values are comparable and immutable.
	Change struct {
		op      Op
		from    Position
		to      Position
		section int
	}

	Op int
)

// Ops are listed in the order they are applied by Adjust.
const (
	OpDeleteSection Op = iota
	OpInsertSection
	OpMoveRow
	OpDeleteRow
	OpInsertRow
	OpUpdateRow
)

// Pos is shorthand for Position{section, row}.
func Pos(section, row int) Position {
	return Position{Section: section, Row: row}
}

// DeleteRow removes the row at a pre-batch position.
func DeleteRow(at Position) Change {
	return Change{op: OpDeleteRow, from: at}
}

// InsertRow adds a row at a post-batch position.
func InsertRow(at Position) Change {
	return Change{op: OpInsertRow, to: at}
}

// MoveRow moves a row from a pre-batch to a post-batch position.
func MoveRow(from, to Position) Change {
	return Change{op: OpMoveRow, from: from, to: to}
}

// UpdateRow reloads the row at a pre-batch position.
func UpdateRow(at Position) Change {
	return Change{op: OpUpdateRow, from: at}
}

// InsertSection adds a section at a post-batch index.
func InsertSection(index int) Change {
	return Change{op: OpInsertSection, section: index}
}

// DeleteSection removes the section at a pre-batch index.
func DeleteSection(index int) Change {
	return Change{op: OpDeleteSection, section: index}
}

func (chg Change) Op() Op {
	return chg.op
}

// At returns the row position of a row-level change. For MoveRow it is the
// source position; section changes return the zero Position.
func (chg Change) At() Position {
	switch chg.op {
	case OpInsertRow:
		return chg.to
	case OpDeleteRow, OpUpdateRow, OpMoveRow:
		return chg.from
	default:
		return Position{}
	}
}

func (chg Change) From() Position {
	return chg.from
}
func (chg Change) To() Position {
	return chg.to
}

// SectionIndex returns the section affected by the change. For row changes it
// is the section of At().
func (chg Change) SectionIndex() int {
	if chg.op.IsSection() {
		return chg.section
	}
	return chg.At().Section
}

// IsStructural reports whether the change shifts other positions, i.e.
// everything except UpdateRow.
func (chg Change) IsStructural() bool {
	return chg.op != OpUpdateRow
}

func (chg Change) String() string {
	switch chg.op {
	case OpDeleteSection, OpInsertSection:
		return fmt.Sprintf("%v(%d)", chg.op, chg.section)
	case OpMoveRow:
		return fmt.Sprintf("%v(%v -> %v)", chg.op, chg.from, chg.to)
	default:
		return fmt.Sprintf("%v(%v)", chg.op, chg.At())
	}
}

func (p Position) String() string {
	return fmt.Sprintf("%d.%d", p.Section, p.Row)
}

// Compare orders positions by section, then by row.
func (p Position) Compare(o Position) int {
	if p.Section != o.Section {
		return cmpInt(p.Section, o.Section)
	}
	return cmpInt(p.Row, o.Row)
}

func (v Op) IsSection() bool {
	return v == OpDeleteSection || v == OpInsertSection
}

func (v Op) String() string {
	switch v {
	case OpDeleteSection:
		return "delete_section"
	case OpInsertSection:
		return "insert_section"
	case OpMoveRow:
		return "move"
	case OpDeleteRow:
		return "delete"
	case OpInsertRow:
		return "insert"
	case OpUpdateRow:
		return "update"
	default:
		return fmt.Sprintf("invalid op %d", int(v))
	}
}

// ParseOp is the inverse of Op.String.
func ParseOp(s string) (Op, bool) {
	for v := OpDeleteSection; v <= OpUpdateRow; v++ {
		if v.String() == s {
			return v, true
		}
	}
	return 0, false
}
