package tablesync

import (
	"fmt"
	"runtime/debug"
)

type Tx struct {
	db       *DB
	stx      storageTx
	finished bool

	changes []RowChange
}

func (db *DB) newTx(stx storageTx) *Tx {
	return &Tx{db: db, stx: stx}
}

func (tx *Tx) DB() *DB {
	return tx.db
}

// Tx runs f in a transaction. A writable transaction is committed if f
// returns nil and rolled back otherwise; a panic inside f is returned as an
// error. Subscribers are notified after a successful commit.
func (db *DB) Tx(writable bool, f func(tx *Tx) error) error {
	tx, err := db.begin(writable)
	if err != nil {
		return err
	}
	defer tx.Close()

	err = safelyCall(f, tx)
	if err != nil {
		return err
	}
	if writable {
		return tx.Commit()
	}
	return nil
}

type panicked struct {
	reason any
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

func (p panicked) Unwrap() error {
	err, _ := p.reason.(error)
	return err
}

func safelyCall(fn func(*Tx) error, tx *Tx) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return fn(tx)
}

func (db *DB) begin(writable bool) (*Tx, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	stx, err := db.store.BeginTx(writable)
	if err != nil {
		return nil, fmt.Errorf("tablesync: begin: %w", err)
	}
	if writable {
		db.WriteCount.Add(1)
	} else {
		db.ReadCount.Add(1)
	}
	return db.newTx(stx), nil
}

func (db *DB) BeginRead() *Tx {
	return must(db.begin(false))
}

func (db *DB) BeginUpdate() *Tx {
	return must(db.begin(true))
}

func (db *DB) Read(f func(tx *Tx)) {
	tx := db.BeginRead()
	defer tx.Close()
	f(tx)
}

func (db *DB) Write(f func(tx *Tx)) {
	tx := db.BeginUpdate()
	defer tx.Close()
	f(tx)
	err := tx.Commit()
	if err != nil {
		panic(fmt.Errorf("commit: %w", err))
	}
}

func (tx *Tx) IsWritable() bool {
	return tx.stx.Writable()
}

// Commit commits a writable transaction and publishes its row changes.
func (tx *Tx) Commit() error {
	if tx.finished {
		return nil
	}
	tx.finished = true
	size := tx.stx.Size()
	err := tx.stx.Commit()
	if err != nil {
		return err
	}
	tx.db.lastSize.Store(size)

	if len(tx.changes) > 0 {
		changes := tx.changes
		tx.changes = nil
		if tx.db.isVerboseLoggingEnabled() {
			tx.db.logf("db: COMMIT %d changes", len(changes))
		}
		tx.db.changes.Publish(changes)
	}
	return nil
}

// Close rolls back the transaction unless it has been committed. Pending
// row changes are discarded.
func (tx *Tx) Close() {
	tx.changes = nil
	if tx.finished {
		return
	}
	tx.finished = true
	err := tx.stx.Rollback()
	if err != nil {
		panic(err) // not expected to happen unless storage API changes
	}
}

func (tx *Tx) recordChange(chg RowChange) {
	tx.changes = append(tx.changes, chg)
}
