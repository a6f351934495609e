package tablesync

type RowEvent int

const (
	RowUpdated RowEvent = iota + 1
	RowDeleted
)

func (v RowEvent) String() string {
	switch v {
	case RowUpdated:
		return "updated"
	case RowDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ObserveRow calls handler when a committed transaction updates or deletes
// the row stored under key. Each transaction produces at most one event,
// decided by the last change it made to the row; inserting a row that did not
// exist is not reported.
func ObserveRow(db *DB, tbl *Table, key string, handler func(RowEvent)) *Subscription {
	return db.Subscribe(func(changes []RowChange) {
		var last *RowChange
		for i := range changes {
			if changes[i].Table == tbl && changes[i].Key == key {
				last = &changes[i]
			}
		}
		switch {
		case last == nil:
		case last.Op == RowDelete:
			handler(RowDeleted)
		case last.Existed:
			handler(RowUpdated)
		}
	})
}
