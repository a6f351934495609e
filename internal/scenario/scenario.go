// Package scenario reads the YAML files the tablesync CLI works with: change
// batches for the corrector and scripted transactions for replays.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/andreyvit/tablesync"
)

// DefaultTable is the table replays write to when a scenario names none.
const DefaultTable = "rows"

var (
	// ErrBadChange indicates a batch entry that is not exactly one valid change.
	ErrBadChange = errors.New("change must have exactly one of delete, insert, update, move, delete_section, insert_section")
	// ErrBadPosition indicates a position that is not a [section, row] pair.
	ErrBadPosition = errors.New("position must be [section, row] with non-negative values")
	// ErrBadRow indicates a put without a key.
	ErrBadRow = errors.New("put requires a key")
)

// Batch is a list of changes in file order.
type Batch struct {
	Changes []ChangeSpec `yaml:"changes"`
}

// ChangeSpec is one change entry, e.g. `delete: [0, 1]` or
// `move: {from: [0, 1], to: [0, 3]}`.
type ChangeSpec struct {
	Delete        []int     `yaml:"delete,omitempty"`
	Insert        []int     `yaml:"insert,omitempty"`
	Update        []int     `yaml:"update,omitempty"`
	Move          *MoveSpec `yaml:"move,omitempty"`
	DeleteSection *int      `yaml:"delete_section,omitempty"`
	InsertSection *int      `yaml:"insert_section,omitempty"`
}

type MoveSpec struct {
	From []int `yaml:"from"`
	To   []int `yaml:"to"`
}

// Scenario is a sequence of write transactions against one sectioned table.
type Scenario struct {
	Table        string        `yaml:"table"`
	Transactions []Transaction `yaml:"transactions"`
}

// Transaction deletes and then puts rows in one commit.
type Transaction struct {
	Put    []KeyedRow `yaml:"put"`
	Delete []string   `yaml:"delete"`
}

type KeyedRow struct {
	Key string `yaml:"key"`
	Row `yaml:",inline"`
}

// Row is what replays store. Rows are grouped into sections by Section and
// ordered by Rank within a section.
type Row struct {
	Title   string `yaml:"title" msgpack:"title" json:"title"`
	Section string `yaml:"section" msgpack:"section" json:"section"`
	Rank    int    `yaml:"rank" msgpack:"rank" json:"rank"`
}

// ReadBatchFile decodes a batch file and converts it to changes.
func ReadBatchFile(path string) ([]tablesync.Change, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadBatch(f)
}

func ReadBatch(r io.Reader) ([]tablesync.Change, error) {
	var batch Batch
	err := yaml.NewDecoder(r).Decode(&batch)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode batch: %w", err)
	}

	changes := make([]tablesync.Change, 0, len(batch.Changes))
	for i, spec := range batch.Changes {
		chg, err := spec.Change()
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", i+1, err)
		}
		changes = append(changes, chg)
	}
	return changes, nil
}

// Change converts the entry into a tablesync.Change.
func (s ChangeSpec) Change() (tablesync.Change, error) {
	var result tablesync.Change
	var n int
	var err error
	set := func(chg tablesync.Change, e error) {
		n++
		result = chg
		if e != nil && err == nil {
			err = e
		}
	}

	if s.Delete != nil {
		p, e := position(s.Delete)
		set(tablesync.DeleteRow(p), e)
	}
	if s.Insert != nil {
		p, e := position(s.Insert)
		set(tablesync.InsertRow(p), e)
	}
	if s.Update != nil {
		p, e := position(s.Update)
		set(tablesync.UpdateRow(p), e)
	}
	if s.Move != nil {
		from, e1 := position(s.Move.From)
		to, e2 := position(s.Move.To)
		set(tablesync.MoveRow(from, to), errors.Join(e1, e2))
	}
	if s.DeleteSection != nil {
		set(tablesync.DeleteSection(*s.DeleteSection), section(*s.DeleteSection))
	}
	if s.InsertSection != nil {
		set(tablesync.InsertSection(*s.InsertSection), section(*s.InsertSection))
	}

	if n != 1 {
		return tablesync.Change{}, ErrBadChange
	}
	if err != nil {
		return tablesync.Change{}, err
	}
	return result, nil
}

// SpecOf is the inverse of ChangeSpec.Change.
func SpecOf(chg tablesync.Change) ChangeSpec {
	pair := func(p tablesync.Position) []int { return []int{p.Section, p.Row} }
	switch chg.Op() {
	case tablesync.OpDeleteRow:
		return ChangeSpec{Delete: pair(chg.At())}
	case tablesync.OpInsertRow:
		return ChangeSpec{Insert: pair(chg.At())}
	case tablesync.OpUpdateRow:
		return ChangeSpec{Update: pair(chg.At())}
	case tablesync.OpMoveRow:
		return ChangeSpec{Move: &MoveSpec{From: pair(chg.From()), To: pair(chg.To())}}
	case tablesync.OpDeleteSection:
		idx := chg.SectionIndex()
		return ChangeSpec{DeleteSection: &idx}
	case tablesync.OpInsertSection:
		idx := chg.SectionIndex()
		return ChangeSpec{InsertSection: &idx}
	default:
		panic(fmt.Errorf("unknown op %v", chg.Op()))
	}
}

// WriteBatch encodes changes in the format ReadBatch accepts.
func WriteBatch(w io.Writer, changes []tablesync.Change) error {
	batch := Batch{Changes: make([]ChangeSpec, len(changes))}
	for i, chg := range changes {
		batch.Changes[i] = SpecOf(chg)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(batch); err != nil {
		return err
	}
	return enc.Close()
}

func position(v []int) (tablesync.Position, error) {
	if len(v) != 2 || v[0] < 0 || v[1] < 0 {
		return tablesync.Position{}, fmt.Errorf("%w, got %v", ErrBadPosition, v)
	}
	return tablesync.Pos(v[0], v[1]), nil
}

func section(idx int) error {
	if idx < 0 {
		return fmt.Errorf("section index must be non-negative, got %d", idx)
	}
	return nil
}

// ReadFile decodes a replay scenario.
func ReadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

func Read(r io.Reader) (*Scenario, error) {
	s := &Scenario{}
	err := yaml.NewDecoder(r).Decode(s)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if s.Table == "" {
		s.Table = DefaultTable
	}
	for i, tx := range s.Transactions {
		for _, kr := range tx.Put {
			if kr.Key == "" {
				return nil, fmt.Errorf("transaction %d: %w", i+1, ErrBadRow)
			}
		}
	}
	return s, nil
}

// Apply performs the transaction's deletes and then its puts.
func (t Transaction) Apply(tx *tablesync.Tx, tbl *tablesync.Table) {
	for _, key := range t.Delete {
		tablesync.Delete(tx, tbl, key)
	}
	for _, kr := range t.Put {
		tablesync.Put(tx, tbl, kr.Key, &kr.Row)
	}
}

// Query arranges scenario rows into sections by Section, ordered by Rank.
func Query(tbl *tablesync.Table) tablesync.Query[Row] {
	return tablesync.Query[Row]{
		Table:     tbl,
		SectionOf: func(_ string, row *Row) string { return row.Section },
		Less:      func(a, b *Row) bool { return a.Rank < b.Rank },
	}
}
