package tablesync

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Put stores row under key, replacing any previous row. Writing a row that
// encodes identically to the stored one is a no-op and reports no change.
func Put[Row any](tx *Tx, tbl *Table, key string, row *Row) {
	if key == "" {
		panic(tableErrf(tbl, key, errEmptyKey, "put"))
	}
	data, err := msgpack.Marshal(row)
	if err != nil {
		panic(tableErrf(tbl, key, err, "encode"))
	}

	b, err := tx.stx.CreateBucket(tbl.name)
	if err != nil {
		panic(tableErrf(tbl, key, err, "create bucket"))
	}
	keyRaw := []byte(key)
	old := b.Get(keyRaw)
	if old != nil && bytes.Equal(old, data) {
		if tx.db.isVerboseLoggingEnabled() {
			tx.db.logf("db: PUT.NOOP %s/%s", tbl.name, key)
		}
		return
	}
	ensure(b.Put(keyRaw, data))
	tx.recordChange(RowChange{Table: tbl, Op: RowPut, Key: key, Existed: old != nil})

	if tx.db.isVerboseLoggingEnabled() {
		tx.db.logf("db: PUT %s/%s => %s", tbl.name, key, loggableRow(tbl, row))
	}
}

// Get returns the row stored under key, or nil.
func Get[Row any](tx *Tx, tbl *Table, key string) *Row {
	b := tx.stx.Bucket(tbl.name)
	if b == nil {
		return nil
	}
	data := b.Get([]byte(key))
	if data == nil {
		return nil
	}
	return must(decodeRow[Row](tbl, key, data))
}

// Delete removes the row stored under key and reports whether it existed.
func Delete(tx *Tx, tbl *Table, key string) bool {
	b := tx.stx.Bucket(tbl.name)
	if b == nil {
		return false
	}
	keyRaw := []byte(key)
	if b.Get(keyRaw) == nil {
		if tx.db.isVerboseLoggingEnabled() {
			tx.db.logf("db: DELETE.NOOP %s/%s", tbl.name, key)
		}
		return false
	}
	ensure(b.Delete(keyRaw))
	tx.recordChange(RowChange{Table: tbl, Op: RowDelete, Key: key})
	if tx.db.isVerboseLoggingEnabled() {
		tx.db.logf("db: DELETE %s/%s", tbl.name, key)
	}
	return true
}

// Scan calls f for every row of the table in key order until f returns false.
func Scan[Row any](tx *Tx, tbl *Table, f func(key string, row *Row) bool) {
	scanRaw(tx, tbl, func(key string, data []byte) bool {
		return f(key, must(decodeRow[Row](tbl, key, data)))
	})
}

// All returns every row of the table in key order.
func All[Row any](tx *Tx, tbl *Table) []*Row {
	var result []*Row
	Scan(tx, tbl, func(_ string, row *Row) bool {
		result = append(result, row)
		return true
	})
	return result
}

// Count returns the number of rows in the table.
func Count(tx *Tx, tbl *Table) int {
	b := tx.stx.Bucket(tbl.name)
	if b == nil {
		return 0
	}
	return b.KeyCount()
}

func scanRaw(tx *Tx, tbl *Table, f func(key string, data []byte) bool) {
	b := tx.stx.Bucket(tbl.name)
	if b == nil {
		return
	}
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if !f(string(k), v) {
			break
		}
	}
}

func decodeRow[Row any](tbl *Table, key string, data []byte) (*Row, error) {
	row := new(Row)
	err := msgpack.Unmarshal(data, row)
	if err != nil {
		return nil, tableErrf(tbl, key, err, "decode")
	}
	return row, nil
}
