package tablesync

// storage is a key-value backend with flat, named buckets (Bolt or in-memory).
type storage interface {
	BeginTx(writable bool) (storageTx, error)
	Close() error
}

type storageTx interface {
	Writable() bool

	// Bucket returns nil if the bucket doesn't exist.
	Bucket(name string) storageBucket

	// CreateBucket creates the bucket if it doesn't exist.
	CreateBucket(name string) (storageBucket, error)

	Commit() error

	// Rollback aborts the transaction. It is safe to call after Commit.
	Rollback() error

	// Size returns the database size in bytes (0 if unknown).
	Size() int64
}

// storageBucket is a sorted key-value collection. Returned slices are only
// valid until the end of the transaction.
type storageBucket interface {
	Get(key []byte) []byte
	Put(key, value []byte) error
	Delete(key []byte) error
	Cursor() storageCursor
	KeyCount() int
}

type storageCursor interface {
	First() (key, value []byte)
	Next() (key, value []byte)
}
