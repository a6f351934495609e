package tablesync

// Correct splits a batch into structural changes and row updates, and
// re-targets every update from the pre-batch coordinate space to the one the
// view will be in after the structural changes are applied.
//
// Both results are sorted by Compare. Either may be empty.
func Correct(changes []Change) (structural, updates []Change) {
	for _, chg := range changes {
		if chg.IsStructural() {
			structural = append(structural, chg)
		} else {
			updates = append(updates, chg)
		}
	}
	SortChanges(structural)

	for i, chg := range updates {
		updates[i] = UpdateRow(adjustSorted(chg.from, structural))
	}
	SortChanges(updates)
	return structural, updates
}
