package tablesync

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sec(name string, keys ...string) snapSection {
	return snapSection{name: name, keys: keys, prints: make([]uint64, len(keys))}
}

func snap(sections ...snapSection) *snapshot {
	return &snapshot{sections: sections}
}

func touched(s snapSection, key string) snapSection {
	prints := make([]uint64, len(s.prints))
	copy(prints, s.prints)
	for i, k := range s.keys {
		if k == key {
			prints[i] = 1
		}
	}
	s.prints = prints
	return s
}

func TestDiffSnapshots(t *testing.T) {
	tests := []struct {
		name   string
		before *snapshot
		after  *snapshot
		want   []Change
	}{
		{
			name:   "identical",
			before: snap(sec("", "a", "b")),
			after:  snap(sec("", "a", "b")),
			want:   nil,
		},
		{
			name:   "delete row",
			before: snap(sec("", "a", "b", "c")),
			after:  snap(sec("", "a", "c")),
			want:   []Change{DeleteRow(Pos(0, 1))},
		},
		{
			name:   "insert row",
			before: snap(sec("", "a", "c")),
			after:  snap(sec("", "a", "b", "c")),
			want:   []Change{InsertRow(Pos(0, 1))},
		},
		{
			name:   "update row",
			before: snap(sec("", "a", "b", "c")),
			after:  snap(touched(sec("", "a", "b", "c"), "b")),
			want:   []Change{UpdateRow(Pos(0, 1))},
		},
		{
			name:   "move within section",
			before: snap(sec("", "a", "b", "c")),
			after:  snap(sec("", "c", "a", "b")),
			want:   []Change{MoveRow(Pos(0, 2), Pos(0, 0))},
		},
		{
			name:   "changed row displaced by two moves",
			before: snap(sec("", "a", "b", "c", "d", "e")),
			after:  snap(touched(sec("", "e", "d", "a", "b", "c"), "a")),
			want: []Change{
				MoveRow(Pos(0, 3), Pos(0, 1)),
				MoveRow(Pos(0, 4), Pos(0, 0)),
				MoveRow(Pos(0, 0), Pos(0, 2)),
			},
		},
		{
			name:   "changed row after a delete",
			before: snap(sec("", "a", "b", "c")),
			after:  snap(touched(sec("", "a", "c"), "c")),
			want:   []Change{DeleteRow(Pos(0, 1)), UpdateRow(Pos(0, 2))},
		},
		{
			name:   "delete section",
			before: snap(sec("s1", "a"), sec("s2", "b")),
			after:  snap(sec("s2", "b")),
			want:   []Change{DeleteSection(0)},
		},
		{
			name:   "row leaves for a new section",
			before: snap(sec("s1", "a", "b")),
			after:  snap(sec("s1", "a"), sec("s2", "b")),
			want:   []Change{InsertSection(1), DeleteRow(Pos(0, 1))},
		},
		{
			name:   "move across sections",
			before: snap(sec("s1", "a", "b"), sec("s2", "c")),
			after:  snap(sec("s1", "a"), sec("s2", "b", "c")),
			want:   []Change{MoveRow(Pos(0, 1), Pos(1, 0))},
		},
		{
			name:   "row rescued from a deleted section",
			before: snap(sec("s1", "a"), sec("s2", "b")),
			after:  snap(sec("s2", "a", "b")),
			want:   []Change{DeleteSection(0), InsertRow(Pos(0, 0))},
		},
		{
			name:   "first fetch",
			before: snap(),
			after:  snap(sec("s", "a", "b")),
			want:   []Change{InsertSection(0)},
		},
		{
			name:   "everything removed",
			before: snap(sec("s", "a", "b")),
			after:  snap(),
			want:   []Change{DeleteSection(0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, diffSnapshots(tt.before, tt.after))
		})
	}
}

func TestLongestIncreasing(t *testing.T) {
	assert.Equal(t, []bool{false, true, true, false, true}, longestIncreasing([]int{3, 1, 2, 0, 4}))
	assert.Equal(t, []bool{true, true, true}, longestIncreasing([]int{0, 1, 2}))
	assert.Equal(t, []bool{}, longestIncreasing(nil))
}

func TestFingerprint(t *testing.T) {
	type row struct {
		Name string
	}
	assert.Equal(t, fingerprint(row{"a"}), fingerprint(row{"a"}))
	assert.NotEqual(t, fingerprint(row{"a"}), fingerprint(row{"b"}))
}

// mutateSnapshot derives a random successor of s: sections come and go (names
// stay in sorted order), rows are deleted, inserted, edited, shuffled within
// their section and moved across sections.
func mutateSnapshot(rng *rand.Rand, s *snapshot, names []string, nextKey *int) *snapshot {
	oldSecs := s.sectionIndex()
	after := &snapshot{}
	for _, name := range names {
		_, existed := oldSecs[name]
		if (existed && rng.IntN(6) != 0) || (!existed && rng.IntN(4) == 0) {
			after.sections = append(after.sections, snapSection{name: name})
		}
	}
	if len(after.sections) == 0 {
		return after
	}
	newSecs := after.sectionIndex()

	add := func(si int, key string, fp uint64) {
		after.sections[si].keys = append(after.sections[si].keys, key)
		after.sections[si].prints = append(after.sections[si].prints, fp)
	}
	for _, sec := range s.sections {
		for r, key := range sec.keys {
			if rng.IntN(8) == 0 {
				continue
			}
			fp := sec.prints[r]
			if rng.IntN(3) == 0 {
				fp++
			}
			si, ok := newSecs[sec.name]
			if !ok || rng.IntN(10) == 0 {
				si = rng.IntN(len(after.sections))
			}
			add(si, key, fp)
		}
	}
	for range rng.IntN(4) {
		*nextKey++
		add(rng.IntN(len(after.sections)), fmt.Sprintf("k%d", *nextKey), 0)
	}

	for i := range after.sections {
		sec := &after.sections[i]
		for range rng.IntN(3) {
			if len(sec.keys) < 2 {
				break
			}
			a, b := rng.IntN(len(sec.keys)), rng.IntN(len(sec.keys))
			sec.keys[a], sec.keys[b] = sec.keys[b], sec.keys[a]
			sec.prints[a], sec.prints[b] = sec.prints[b], sec.prints[a]
		}
		if rng.IntN(4) == 0 && len(sec.keys) > 1 {
			from, to := rng.IntN(len(sec.keys)), rng.IntN(len(sec.keys))
			key, fp := sec.keys[from], sec.prints[from]
			sec.keys = slices.Insert(slices.Delete(sec.keys, from, from+1), to, key)
			sec.prints = slices.Insert(slices.Delete(sec.prints, from, from+1), to, fp)
		}
	}
	return after
}

// requireReloadsLand checks that after correction every update points at a
// row whose content changed, and that every changed row still visible in a
// surviving section is reloaded, by an update or a move, at its new position.
func requireReloadsLand(t *testing.T, before, after *snapshot) {
	t.Helper()
	structural, updates := Correct(diffSnapshots(before, after))

	oldRows, newRows := before.rowIndex(), after.rowIndex()
	oldSecs, newSecs := before.sectionIndex(), after.sectionIndex()

	reloaded := make(map[Position]bool)
	for _, u := range updates {
		at := u.At()
		require.Less(t, at.Section, len(after.sections), "update %v", u)
		require.Less(t, at.Row, len(after.sections[at.Section].keys), "update %v", u)
		key := after.sections[at.Section].keys[at.Row]
		old, ok := oldRows[key]
		require.True(t, ok, "update %v lands on new row %s", u, key)
		require.NotEqual(t, old.print, after.sections[at.Section].prints[at.Row], "update %v lands on unchanged row %s", u, key)
		require.False(t, reloaded[at], "duplicate update %v", u)
		reloaded[at] = true
	}
	for _, chg := range structural {
		if chg.Op() == OpMoveRow {
			reloaded[chg.To()] = true
		}
	}

	for key, loc := range newRows {
		old, ok := oldRows[key]
		if !ok || old.print == loc.print {
			continue
		}
		_, oldSurvives := newSecs[before.sections[old.pos.Section].name]
		_, newIsOld := oldSecs[after.sections[loc.pos.Section].name]
		if oldSurvives && newIsOld {
			require.True(t, reloaded[loc.pos], "changed row %s at %v is not reloaded", key, loc.pos)
		}
	}
}

func TestDiffSnapshots_UpdatesLandOnChangedRows(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	names := []string{"s0", "s1", "s2", "s3", "s4"}
	for iter := range 500 {
		nextKey := 0
		s := &snapshot{}
		for range 3 {
			s = mutateSnapshot(rng, s, names, &nextKey)
		}
		next := mutateSnapshot(rng, s, names, &nextKey)
		t.Run(fmt.Sprint(iter), func(t *testing.T) {
			requireReloadsLand(t, s, next)
		})
	}
}
