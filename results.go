package tablesync

import (
	"cmp"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Query selects and arranges the rows of one table for Results.
type Query[Row any] struct {
	Table *Table

	// Filter keeps only rows for which it returns true. Nil keeps everything.
	Filter func(key string, row *Row) bool

	// SectionOf names the section a row belongs to. Sections are ordered by
	// name and only exist while they have rows; a section named "" has no
	// header title. Without SectionOf, Results has exactly one untitled
	// section.
	SectionOf func(key string, row *Row) string

	// Less orders rows within a section; ties and a nil Less fall back to key
	// order.
	Less func(a, b *Row) bool
}

// Results is a DataSource backed by a query against a DB. Once fetched, it
// follows the committed changes of the queried table, re-runs the query and
// reports the difference to its Updatable.
//
// Change delivery happens on the goroutine that commits the write, so writes
// to a table observed by Results must happen on the goroutine that owns the
// view.
type Results[Row, Item any] struct {
	db        *DB
	query     Query[Row]
	transform func(row *Row) Item
	updatable Updatable

	sections []fetchedSection[Row]
	snap     *snapshot
	sub      *Subscription
}

type fetchedSection[Row any] struct {
	name string
	keys []string
	rows []*Row
}

type fetchedRow[Row any] struct {
	key     string
	section string
	row     *Row
	print   uint64
}

var _ DataSource[int] = (*Results[struct{}, int])(nil)

// NewResults creates Results for query. Call PerformFetch to load it.
func NewResults[Row, Item any](db *DB, query Query[Row], transform func(row *Row) Item, updatable Updatable) *Results[Row, Item] {
	if query.Table == nil {
		panic("tablesync: query without a table")
	}
	return &Results[Row, Item]{
		db:        db,
		query:     query,
		transform: transform,
		updatable: updatable,
		snap:      &snapshot{},
	}
}

// PerformFetch runs the query and starts following changes. The initial
// fetch is not reported to the Updatable.
func (r *Results[Row, Item]) PerformFetch() error {
	sections, snap, err := r.fetch()
	if err != nil {
		return err
	}
	r.sections, r.snap = sections, snap
	if r.sub == nil {
		r.sub = r.db.Subscribe(r.dbChanged)
	}
	return nil
}

// Refresh re-runs the query and reports the difference. It returns the raw
// changes that were reported.
func (r *Results[Row, Item]) Refresh() ([]Change, error) {
	sections, snap, err := r.fetch()
	if err != nil {
		return nil, err
	}
	changes := diffSnapshots(r.snap, snap)
	r.sections, r.snap = sections, snap
	emitChanges(r.updatable, changes)
	return changes, nil
}

// Close stops following changes.
func (r *Results[Row, Item]) Close() {
	r.sub.Close()
	r.sub = nil
}

func (r *Results[Row, Item]) dbChanged(changes []RowChange) {
	if !touches(changes, r.query.Table) {
		return
	}
	_, err := r.Refresh()
	if err != nil && r.db.logf != nil {
		r.db.logf("tablesync: refreshing %s results: %v", r.query.Table.Name(), err)
	}
}

func (r *Results[Row, Item]) fetch() ([]fetchedSection[Row], *snapshot, error) {
	var rows []fetchedRow[Row]
	q := r.query
	err := r.db.Tx(false, func(tx *Tx) error {
		var err error
		scanRaw(tx, q.Table, func(key string, data []byte) bool {
			var row *Row
			row, err = decodeRow[Row](q.Table, key, data)
			if err != nil {
				return false
			}
			if q.Filter != nil && !q.Filter(key, row) {
				return true
			}
			fr := fetchedRow[Row]{key: key, row: row, print: xxhash.Sum64(data)}
			if q.SectionOf != nil {
				fr.section = q.SectionOf(key, row)
			}
			rows = append(rows, fr)
			return true
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	slices.SortStableFunc(rows, func(a, b fetchedRow[Row]) int {
		if c := cmp.Compare(a.section, b.section); c != 0 {
			return c
		}
		if q.Less != nil {
			if q.Less(a.row, b.row) {
				return -1
			} else if q.Less(b.row, a.row) {
				return 1
			}
		}
		return cmp.Compare(a.key, b.key)
	})

	var sections []fetchedSection[Row]
	snap := &snapshot{}
	if q.SectionOf == nil {
		sections = append(sections, fetchedSection[Row]{})
		snap.sections = append(snap.sections, snapSection{})
	}
	for _, fr := range rows {
		n := len(sections)
		if n == 0 || sections[n-1].name != fr.section {
			sections = append(sections, fetchedSection[Row]{name: fr.section})
			snap.sections = append(snap.sections, snapSection{name: fr.section})
			n++
		}
		sections[n-1].keys = append(sections[n-1].keys, fr.key)
		sections[n-1].rows = append(sections[n-1].rows, fr.row)
		snap.sections[n-1].keys = append(snap.sections[n-1].keys, fr.key)
		snap.sections[n-1].prints = append(snap.sections[n-1].prints, fr.print)
	}
	return sections, snap, nil
}

func (r *Results[Row, Item]) Row(at Position) *Row {
	return r.sections[at.Section].rows[at.Row]
}

func (r *Results[Row, Item]) Key(at Position) string {
	return r.sections[at.Section].keys[at.Row]
}

// IndexOf returns the position of the row with the given key.
func (r *Results[Row, Item]) IndexOf(key string) (Position, bool) {
	for i, sec := range r.sections {
		if j := slices.Index(sec.keys, key); j >= 0 {
			return Position{i, j}, true
		}
	}
	return Position{}, false
}

func (r *Results[Row, Item]) Item(at Position) Item {
	return r.transform(r.Row(at))
}

func (r *Results[Row, Item]) NumberOfItems(section int) int {
	return len(r.sections[section].rows)
}

func (r *Results[Row, Item]) NumberOfSections() int {
	return len(r.sections)
}

func (r *Results[Row, Item]) TitleForHeader(section int) (string, bool) {
	name := r.sections[section].name
	return name, name != ""
}
