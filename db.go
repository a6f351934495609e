package tablesync

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"
)

// DB is a small keyed document store whose committed changes can be observed.
// It backs query-driven data sources (see Results).
type DB struct {
	store   storage
	logf    func(format string, args ...any)
	verbose bool

	changes Notifier[[]RowChange]

	lastSize   atomic.Int64
	ReadCount  atomic.Uint64
	WriteCount atomic.Uint64
	closed     atomic.Bool
}

type Options struct {
	Logf      func(format string, args ...any)
	Verbose   bool
	IsTesting bool
	Timeout   time.Duration
	MmapSize  int
}

// Open opens (creating if necessary) a Bolt database file.
func Open(path string, opt Options) (*DB, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.Timeout != 0 {
		bopt.Timeout = opt.Timeout
	}
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("tablesync: %w", err)
	}
	return newDB(newBoltStorage(bdb), opt), nil
}

// OpenMemory returns a transient database that lives in memory.
func OpenMemory(opt Options) *DB {
	return newDB(newMemStorage(), opt)
}

func newDB(store storage, opt Options) *DB {
	return &DB{
		store:   store,
		logf:    opt.Logf,
		verbose: opt.Verbose,
	}
}

// Size returns the database size as of the most recent committed write.
func (db *DB) Size() int64 {
	return db.lastSize.Load()
}

// Subscribe registers f to receive the row changes of every committed write
// transaction. f runs synchronously on the committing goroutine.
func (db *DB) Subscribe(f func(changes []RowChange)) *Subscription {
	return db.changes.Subscribe(f)
}

func (db *DB) Close() {
	if !db.closed.CompareAndSwap(false, true) {
		return
	}
	err := db.store.Close()
	if err != nil {
		panic(fmt.Errorf("tablesync: closing: %w", err))
	}
}

func (db *DB) isVerboseLoggingEnabled() bool {
	return db.verbose && db.logf != nil
}
