package tablesync

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// snapshot is the shape of a data source at one point in time: ordered
// sections with ordered row keys and content fingerprints.
type snapshot struct {
	sections []snapSection
}

type snapSection struct {
	name   string
	keys   []string
	prints []uint64
}

type snapLoc struct {
	pos   Position
	print uint64
}

func (s *snapshot) rowCount() int {
	var n int
	for _, sec := range s.sections {
		n += len(sec.keys)
	}
	return n
}

func (s *snapshot) sectionIndex() map[string]int {
	m := make(map[string]int, len(s.sections))
	for i, sec := range s.sections {
		m[sec.name] = i
	}
	return m
}

func (s *snapshot) rowIndex() map[string]snapLoc {
	m := make(map[string]snapLoc, s.rowCount())
	for i, sec := range s.sections {
		for j, key := range sec.keys {
			m[key] = snapLoc{Position{i, j}, sec.prints[j]}
		}
	}
	return m
}

// fingerprint hashes the msgpack encoding of v.
func fingerprint(v any) uint64 {
	data, err := msgpack.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("tablesync: cannot fingerprint %T: %w", v, err))
	}
	return xxhash.Sum64(data)
}

// diffSnapshots describes how to get from before to after as a raw change stream in
// fetched-results conventions: deletions, move sources and updates use old
// coordinates, insertions and move destinations use new coordinates.
//
// Rows of removed or added sections are covered by the section change and
// are not reported individually. Rows that stay in the same section are
// reported as moves only when they fall outside the longest run of rows that
// kept their relative order. Changed rows are reported as updates only when
// Adjust carries their old position to the new one; otherwise as moves.
func diffSnapshots(before, after *snapshot) []Change {
	var changes []Change

	oldSecs, newSecs := before.sectionIndex(), after.sectionIndex()
	for i, sec := range before.sections {
		if _, ok := newSecs[sec.name]; !ok {
			changes = append(changes, DeleteSection(i))
		}
	}
	for j, sec := range after.sections {
		if _, ok := oldSecs[sec.name]; !ok {
			changes = append(changes, InsertSection(j))
		}
	}

	newRows := after.rowIndex()
	oldKeys := make(map[string]struct{}, before.rowCount())
	var updated []stayedRow

	for i, sec := range before.sections {
		newSection, oldSurvives := newSecs[sec.name]

		var stayed []stayedRow
		for r, key := range sec.keys {
			oldKeys[key] = struct{}{}
			oldPos := Position{i, r}
			loc, found := newRows[key]
			if !found {
				if oldSurvives {
					changes = append(changes, DeleteRow(oldPos))
				}
				continue
			}
			_, newIsOld := oldSecs[after.sections[loc.pos.Section].name]
			switch {
			case oldSurvives && newIsOld:
				if loc.pos.Section == newSection {
					stayed = append(stayed, stayedRow{oldPos, loc.pos, loc.print != sec.prints[r]})
				} else {
					changes = append(changes, MoveRow(oldPos, loc.pos))
				}
			case oldSurvives:
				changes = append(changes, DeleteRow(oldPos))
			case newIsOld:
				changes = append(changes, InsertRow(loc.pos))
			}
		}
		changes, updated = appendStayedChanges(changes, updated, stayed)
	}

	for j, sec := range after.sections {
		if _, ok := oldSecs[sec.name]; !ok {
			continue
		}
		for r, key := range sec.keys {
			if _, ok := oldKeys[key]; !ok {
				changes = append(changes, InsertRow(Position{j, r}))
			}
		}
	}
	return appendUpdates(changes, updated)
}

type stayedRow struct {
	from    Position
	to      Position
	changed bool
}

func appendStayedChanges(changes []Change, updated, rows []stayedRow) ([]Change, []stayedRow) {
	if len(rows) == 0 {
		return changes, updated
	}
	seq := make([]int, len(rows))
	for i, r := range rows {
		seq[i] = r.to.Row
	}
	stable := longestIncreasing(seq)
	for i, r := range rows {
		if !stable[i] {
			changes = append(changes, MoveRow(r.from, r.to))
		} else if r.changed {
			updated = append(updated, r)
		}
	}
	return changes, updated
}

// appendUpdates reports changed rows as updates when Adjust maps their old
// position onto the new one through the structural changes. A row it cannot
// reach is reported as a move instead, which makes the view reload it too;
// every added move alters the adjustment, so this repeats until it settles.
func appendUpdates(structural []Change, rows []stayedRow) []Change {
	if len(rows) == 0 {
		return structural
	}
	for {
		sorted := sortedCopy(structural)
		pending := rows[:0]
		for _, r := range rows {
			if adjustSorted(r.from, sorted) == r.to {
				pending = append(pending, r)
			} else {
				structural = append(structural, MoveRow(r.from, r.to))
			}
		}
		if len(pending) == len(rows) {
			break
		}
		rows = pending
	}
	for _, r := range rows {
		structural = append(structural, UpdateRow(r.from))
	}
	return structural
}

// longestIncreasing marks the elements of one longest strictly increasing
// subsequence of seq.
func longestIncreasing(seq []int) []bool {
	n := len(seq)
	tails := make([]int, 0, n) // indices into seq
	prev := make([]int, n)
	for i, v := range seq {
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo > 0 {
			prev[i] = tails[lo-1]
		} else {
			prev[i] = -1
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}

	result := make([]bool, n)
	if len(tails) > 0 {
		for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
			result[i] = true
		}
	}
	return result
}

// emitChanges drives u through one begin/apply*/end cycle. Nothing is emitted
// when there are no changes.
func emitChanges(u Updatable, changes []Change) {
	if u == nil || len(changes) == 0 {
		return
	}
	u.BeginUpdates()
	for _, chg := range changes {
		u.Apply(chg)
	}
	u.EndUpdates()
}
