package tablesync

// Adjust returns the coordinates p will have once all of the given structural
// changes have been applied. The result is a pure function of p and the set of
// changes: changes are considered in Compare order regardless of their order in
// the slice. UpdateRow changes are ignored.
//
// Changes must describe a consistent delta of the collection p belongs to;
// inconsistent input yields a meaningless (possibly negative) position rather
// than an error.
func Adjust(p Position, changes []Change) Position {
	if len(changes) == 0 {
		return p
	}
	return adjustSorted(p, sortedCopy(changes))
}

// adjustSorted is Adjust for changes already sorted by Compare.
func adjustSorted(p Position, changes []Change) Position {
	section, row := p.Section, p.Row
	for _, chg := range changes {
		switch chg.op {
		case OpDeleteSection:
			if chg.section <= section {
				section--
			}
		case OpInsertSection:
			if chg.section <= section {
				section++
			}
		case OpDeleteRow:
			if chg.from.Section == section && chg.from.Row <= row {
				row--
			}
		case OpInsertRow:
			if chg.to.Section == section && chg.to.Row <= row {
				row++
			}
		case OpMoveRow:
			if chg.from.Section == section && chg.from.Row <= row {
				row--
			}
			if chg.to.Section == section && chg.to.Row <= row {
				row++
			}
		}
	}
	return Position{Section: section, Row: row}
}
