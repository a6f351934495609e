package tablesync

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Task struct {
	Title string `msgpack:"title"`
	Group string `msgpack:"group"`
	Rank  int    `msgpack:"rank"`
}

var tasksTable = DefineTable("tasks")
var notesTable = DefineTable("notes")

func eachBackend(t *testing.T, f func(t *testing.T, db *DB)) {
	t.Run("bolt", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), Options{IsTesting: true})
		require.NoError(t, err)
		t.Cleanup(db.Close)
		f(t, db)
	})
	t.Run("memory", func(t *testing.T) {
		db := OpenMemory(Options{IsTesting: true})
		t.Cleanup(db.Close)
		f(t, db)
	})
}

func putTasks(db *DB, tasks map[string]Task) {
	db.Write(func(tx *Tx) {
		for key, task := range tasks {
			Put(tx, tasksTable, key, &task)
		}
	})
}

func TestDB_PutGetDelete(t *testing.T) {
	eachBackend(t, func(t *testing.T, db *DB) {
		db.Read(func(tx *Tx) {
			assert.Nil(t, Get[Task](tx, tasksTable, "a"))
			assert.Zero(t, Count(tx, tasksTable))
			assert.False(t, tx.IsWritable())
		})

		putTasks(db, map[string]Task{
			"b": {Title: "Buy milk", Rank: 2},
			"a": {Title: "Call mom", Rank: 1},
		})

		db.Read(func(tx *Tx) {
			assert.Equal(t, &Task{Title: "Call mom", Rank: 1}, Get[Task](tx, tasksTable, "a"))
			assert.Equal(t, 2, Count(tx, tasksTable))
			all := All[Task](tx, tasksTable)
			require.Len(t, all, 2)
			assert.Equal(t, "Call mom", all[0].Title, "key order")
			assert.Equal(t, "Buy milk", all[1].Title)
		})

		db.Write(func(tx *Tx) {
			assert.True(t, Delete(tx, tasksTable, "a"))
			assert.False(t, Delete(tx, tasksTable, "a"))
			assert.False(t, Delete(tx, notesTable, "a"))
		})
		db.Read(func(tx *Tx) {
			assert.Nil(t, Get[Task](tx, tasksTable, "a"))
			assert.Equal(t, 1, Count(tx, tasksTable))
		})
		assert.Positive(t, db.Size())
	})
}

func TestDB_Scan(t *testing.T) {
	eachBackend(t, func(t *testing.T, db *DB) {
		putTasks(db, map[string]Task{
			"a": {Title: "A"},
			"b": {Title: "B"},
			"c": {Title: "C"},
		})
		var keys []string
		db.Read(func(tx *Tx) {
			Scan(tx, tasksTable, func(key string, row *Task) bool {
				keys = append(keys, key+"="+row.Title)
				return key != "b"
			})
		})
		assert.Equal(t, []string{"a=A", "b=B"}, keys)
	})
}

func TestDB_SubscribersSeeCommittedChanges(t *testing.T) {
	eachBackend(t, func(t *testing.T, db *DB) {
		var got [][]RowChange
		sub := db.Subscribe(func(changes []RowChange) {
			got = append(got, changes)
		})
		defer sub.Close()

		putTasks(db, map[string]Task{"a": {Title: "A"}})
		db.Write(func(tx *Tx) {
			Put(tx, tasksTable, "a", &Task{Title: "A2"})
			Put(tx, tasksTable, "b", &Task{Title: "B"})
			Delete(tx, tasksTable, "a")
		})

		assert.Equal(t, [][]RowChange{
			{{Table: tasksTable, Op: RowPut, Key: "a"}},
			{
				{Table: tasksTable, Op: RowPut, Key: "a", Existed: true},
				{Table: tasksTable, Op: RowPut, Key: "b"},
				{Table: tasksTable, Op: RowDelete, Key: "a"},
			},
		}, got)
	})
}

func TestDB_IdenticalPutIsNoop(t *testing.T) {
	eachBackend(t, func(t *testing.T, db *DB) {
		putTasks(db, map[string]Task{"a": {Title: "A"}})

		var notified int
		sub := db.Subscribe(func([]RowChange) { notified++ })
		defer sub.Close()

		putTasks(db, map[string]Task{"a": {Title: "A"}})
		assert.Zero(t, notified)
	})
}

func TestDB_TxRollsBackOnError(t *testing.T) {
	eachBackend(t, func(t *testing.T, db *DB) {
		var notified int
		sub := db.Subscribe(func([]RowChange) { notified++ })
		defer sub.Close()

		boom := errors.New("boom")
		err := db.Tx(true, func(tx *Tx) error {
			Put(tx, tasksTable, "a", &Task{Title: "A"})
			return boom
		})
		assert.ErrorIs(t, err, boom)

		err = db.Tx(true, func(tx *Tx) error {
			Put(tx, tasksTable, "a", &Task{Title: "A"})
			panic(fmt.Errorf("wrapped: %w", boom))
		})
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "panic: wrapped: boom")

		err = db.Tx(false, func(tx *Tx) error {
			assert.Nil(t, Get[Task](tx, tasksTable, "a"))
			return nil
		})
		assert.NoError(t, err)
		assert.Zero(t, notified)
	})
}

func TestDB_EmptyKeyPanics(t *testing.T) {
	eachBackend(t, func(t *testing.T, db *DB) {
		err := db.Tx(true, func(tx *Tx) error {
			Put(tx, tasksTable, "", &Task{})
			return nil
		})
		require.Error(t, err)
		var tblErr *TableError
		require.ErrorAs(t, err, &tblErr)
		assert.Equal(t, tasksTable, tblErr.Table)
		assert.ErrorIs(t, err, errEmptyKey)
	})
}

func TestDB_Counters(t *testing.T) {
	db := OpenMemory(Options{})
	defer db.Close()
	db.Read(func(*Tx) {})
	db.Write(func(*Tx) {})
	db.Write(func(*Tx) {})
	assert.EqualValues(t, 1, db.ReadCount.Load())
	assert.EqualValues(t, 2, db.WriteCount.Load())
}

func TestDB_Closed(t *testing.T) {
	eachBackend(t, func(t *testing.T, db *DB) {
		db.Close()
		db.Close()
		err := db.Tx(false, func(*Tx) error { return nil })
		assert.ErrorIs(t, err, ErrClosed)
		assert.Panics(t, func() { db.BeginRead() })
	})
}

func TestDB_VerboseLogging(t *testing.T) {
	var logs []string
	db := OpenMemory(Options{
		Verbose: true,
		Logf: func(format string, args ...any) {
			logs = append(logs, fmt.Sprintf(format, args...))
		},
	})
	defer db.Close()

	secrets := DefineTable("secrets").SuppressContentWhenLogging()
	db.Write(func(tx *Tx) {
		Put(tx, tasksTable, "a", &Task{Title: "A"})
		Put(tx, secrets, "s", &Task{Title: "hunter2"})
		Put(tx, tasksTable, "a", &Task{Title: "A"})
		Delete(tx, tasksTable, "missing")
	})
	assert.Equal(t, []string{
		`db: PUT tasks/a => {"Title":"A","Group":"","Rank":0}`,
		`db: PUT secrets/s => <suppressed>`,
		`db: PUT.NOOP tasks/a`,
		`db: DELETE.NOOP tasks/missing`,
		`db: COMMIT 2 changes`,
	}, logs)
}

func TestTx_Dump(t *testing.T) {
	db := OpenMemory(Options{})
	defer db.Close()
	secrets := DefineTable("secrets").SuppressContentWhenLogging()
	db.Write(func(tx *Tx) {
		Put(tx, tasksTable, "a", &Task{Title: "A", Rank: 1})
		Put(tx, secrets, "s", &Task{Title: "hunter2"})
	})

	var dump string
	db.Read(func(tx *Tx) {
		dump = tx.Dump(tasksTable, secrets)
	})
	assert.Contains(t, dump, "tasks (1 rows)\n")
	assert.Contains(t, dump, `tasks.1 a = {"group":"","rank":1,"title":"A"}`)
	assert.Contains(t, dump, "secrets.1 s = <suppressed>")
	assert.NotContains(t, dump, "hunter2")
}

func TestFormatChanges(t *testing.T) {
	assert.Equal(t, "", FormatChanges(nil))
	assert.Equal(t, "delete(0.1), update(0.2)", FormatChanges([]Change{DeleteRow(Pos(0, 1)), UpdateRow(Pos(0, 2))}))
}

func TestRowOp_String(t *testing.T) {
	assert.Equal(t, "put", RowPut.String())
	assert.Equal(t, "delete", RowDelete.String())
	assert.Equal(t, "invalid row op 7", RowOp(7).String())
}
