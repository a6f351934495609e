package tablesync

import (
	"slices"
)

// MemorySource is an in-memory DataSource over sections of models. Replacing
// its contents with SetSections reports the difference to the bound
// Updatable.
//
// Sections are identified by their titles and rows by the key function, so
// both must be unique within one source. Row content changes are detected by
// comparing msgpack fingerprints of the models.
type MemorySource[Model, Item any] struct {
	key       func(Model) string
	transform func(Model) Item
	sections  []Section[Model]
	snap      *snapshot
	updatable Updatable
}

var _ DataSource[int] = (*MemorySource[string, int])(nil)

// NewMemorySource returns an empty source. key identifies rows across
// SetSections calls; transform turns models into view items.
func NewMemorySource[Model, Item any](key func(Model) string, transform func(Model) Item) *MemorySource[Model, Item] {
	return &MemorySource[Model, Item]{
		key:       key,
		transform: transform,
		snap:      &snapshot{},
	}
}

// Bind makes u receive the changes produced by subsequent SetSections calls.
// Pass nil to unbind.
func (s *MemorySource[Model, Item]) Bind(u Updatable) {
	s.updatable = u
}

// SetSections replaces the contents of the source and returns the raw
// changes it reported.
func (s *MemorySource[Model, Item]) SetSections(sections []Section[Model]) []Change {
	sections = slices.Clone(sections)
	snap := &snapshot{sections: make([]snapSection, len(sections))}
	for i, sec := range sections {
		ss := snapSection{
			name:   sec.Title,
			keys:   make([]string, len(sec.Items)),
			prints: make([]uint64, len(sec.Items)),
		}
		for j, m := range sec.Items {
			ss.keys[j] = s.key(m)
			ss.prints[j] = fingerprint(m)
		}
		snap.sections[i] = ss
	}

	changes := diffSnapshots(s.snap, snap)
	s.sections, s.snap = sections, snap
	emitChanges(s.updatable, changes)
	return changes
}

func (s *MemorySource[Model, Item]) Sections() []Section[Model] {
	return s.sections
}

func (s *MemorySource[Model, Item]) Model(at Position) Model {
	return s.sections[at.Section].Items[at.Row]
}

func (s *MemorySource[Model, Item]) Item(at Position) Item {
	return s.transform(s.Model(at))
}

func (s *MemorySource[Model, Item]) NumberOfItems(section int) int {
	return len(s.sections[section].Items)
}

func (s *MemorySource[Model, Item]) NumberOfSections() int {
	return len(s.sections)
}

func (s *MemorySource[Model, Item]) TitleForHeader(section int) (string, bool) {
	title := s.sections[section].Title
	return title, title != ""
}
