package tablesync

import (
	"slices"
)

// rank is the priority of an op when sorting a batch. Section deletions come
// first, then section insertions, moves, row deletions, row insertions, and
// finally updates.
func rank(op Op) int {
	switch op {
	case OpDeleteSection:
		return 0
	case OpInsertSection:
		return 1
	case OpMoveRow:
		return 2
	case OpDeleteRow:
		return 3
	case OpInsertRow:
		return 4
	case OpUpdateRow:
		return 5
	default:
		panic("invalid op")
	}
}

// Compare defines the total order over changes: by rank of the op, then by
// section index for section changes, by (from, to) for moves and by position
// for the remaining row changes.
func Compare(a, b Change) int {
	if ra, rb := rank(a.op), rank(b.op); ra != rb {
		return cmpInt(ra, rb)
	}
	switch a.op {
	case OpDeleteSection, OpInsertSection:
		return cmpInt(a.section, b.section)
	case OpMoveRow:
		if c := a.from.Compare(b.from); c != 0 {
			return c
		}
		return a.to.Compare(b.to)
	default:
		return a.At().Compare(b.At())
	}
}

// Less reports whether a sorts before b.
func Less(a, b Change) bool {
	return Compare(a, b) < 0
}

// SortChanges sorts changes in place according to Compare.
func SortChanges(changes []Change) {
	slices.SortFunc(changes, Compare)
}

func sortedCopy(changes []Change) []Change {
	result := slices.Clone(changes)
	SortChanges(result)
	return result
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	} else {
		return 0
	}
}
