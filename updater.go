package tablesync

import (
	"errors"
)

// ErrNotCollecting is the panic value used when Apply or EndUpdates is called
// outside of a BeginUpdates/EndUpdates pair.
var ErrNotCollecting = errors.New("tablesync: updater is not collecting changes")

type UpdaterOptions struct {
	Logf    func(format string, args ...any)
	Verbose bool
	Metrics *Metrics
}

// Updater buffers changes between BeginUpdates and EndUpdates, corrects them
// and submits structural changes and row updates to the sink as two separate
// batches.
//
// Updater is not safe for concurrent use. It must be driven from the goroutine
// that owns the bound view.
type Updater struct {
	sink       Sink
	logf       func(format string, args ...any)
	verbose    bool
	metrics    *Metrics
	collecting bool
	changes    []Change
}

var _ Updatable = (*Updater)(nil)

// NewUpdater returns an idle Updater submitting to sink.
func NewUpdater(sink Sink, opt UpdaterOptions) *Updater {
	return &Updater{
		sink:    sink,
		logf:    opt.Logf,
		verbose: opt.Verbose,
		metrics: opt.Metrics,
	}
}

// BeginUpdates starts collecting a new batch. Calling it while a batch is
// already being collected discards the pending changes; batches do not nest.
func (u *Updater) BeginUpdates() {
	if u.collecting && len(u.changes) > 0 {
		if u.verbose && u.logf != nil {
			u.logf("tablesync: BEGIN discards %d pending changes", len(u.changes))
		}
		u.metrics.discarded(len(u.changes))
	}
	u.changes = u.changes[:0]
	u.collecting = true
}

// Apply appends chg to the pending batch. Panics with ErrNotCollecting when
// no batch is open.
func (u *Updater) Apply(chg Change) {
	if !u.collecting {
		panic(ErrNotCollecting)
	}
	u.changes = append(u.changes, chg)
}

// EndUpdates closes the batch and submits it to the sink. Empty halves are not
// submitted at all. Panics with ErrNotCollecting when no batch is open.
func (u *Updater) EndUpdates() {
	if !u.collecting {
		panic(ErrNotCollecting)
	}
	u.collecting = false

	structural, updates := Correct(u.changes)
	u.changes = u.changes[:0]

	if u.verbose && u.logf != nil {
		u.logf("tablesync: END structural=%v updates=%v", structural, updates)
	}

	if len(structural) > 0 {
		u.sink.ApplyBatch(structural)
		u.metrics.submitted(batchStructural, structural)
	}
	if len(updates) > 0 {
		u.sink.ApplyBatch(updates)
		u.metrics.submitted(batchUpdates, updates)
		if len(structural) > 0 {
			u.metrics.retargeted(len(updates))
		}
	}
}

// IsCollecting reports whether a batch is open.
func (u *Updater) IsCollecting() bool {
	return u.collecting
}

// Pending returns the number of changes buffered in the open batch.
func (u *Updater) Pending() int {
	return len(u.changes)
}
