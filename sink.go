package tablesync

import (
	"slices"
)

// Sink receives corrected batches from an Updater. ApplyBatch must apply all
// changes as one atomic view transaction.
type Sink interface {
	ApplyBatch(changes []Change)
}

// Updatable consumes a begin/apply*/end stream of raw changes. Updater is the
// canonical implementation; data sources drive an Updatable.
type Updatable interface {
	BeginUpdates()
	Apply(chg Change)
	EndUpdates()
}

type SinkFunc func(changes []Change)

func (f SinkFunc) ApplyBatch(changes []Change) {
	f(changes)
}

// View is a concrete list or grid view that accepts individual mutations
// inside a transaction, the way table and collection views do.
type View interface {
	BeginTransaction()
	Apply(chg Change)
	EndTransaction()
}

// ViewSink returns a Sink that applies each batch to v inside a single
// transaction.
func ViewSink(v View) Sink {
	return viewSink{v}
}

type viewSink struct {
	view View
}

func (s viewSink) ApplyBatch(changes []Change) {
	s.view.BeginTransaction()
	defer s.view.EndTransaction()
	for _, chg := range changes {
		s.view.Apply(chg)
	}
}

// Recorder is a Sink that remembers every batch it receives.
type Recorder struct {
	Batches [][]Change
}

func (r *Recorder) ApplyBatch(changes []Change) {
	r.Batches = append(r.Batches, slices.Clone(changes))
}

// Reset forgets all recorded batches.
func (r *Recorder) Reset() {
	r.Batches = nil
}
