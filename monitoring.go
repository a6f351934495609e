package tablesync

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	batchStructural = "structural"
	batchUpdates    = "updates"
)

// Metrics counts what Updaters submit to their sinks. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Batches    *prometheus.CounterVec
	Changes    *prometheus.CounterVec
	Retargeted prometheus.Counter
	Discarded  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg unless reg is
// nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablesync",
			Name:      "batches_total",
			Help:      "Number of batches submitted to view sinks.",
		}, []string{"kind"}),
		Changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablesync",
			Name:      "changes_total",
			Help:      "Number of changes submitted to view sinks.",
		}, []string{"op"}),
		Retargeted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tablesync",
			Name:      "retargeted_updates_total",
			Help:      "Number of row updates submitted alongside structural changes.",
		}),
		Discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tablesync",
			Name:      "discarded_changes_total",
			Help:      "Number of pending changes dropped by a repeated BeginUpdates.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Batches, m.Changes, m.Retargeted, m.Discarded)
	}
	return m
}

func (m *Metrics) submitted(kind string, changes []Change) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(kind).Inc()
	for _, chg := range changes {
		m.Changes.WithLabelValues(chg.op.String()).Inc()
	}
}

func (m *Metrics) retargeted(n int) {
	if m == nil {
		return
	}
	m.Retargeted.Add(float64(n))
}

func (m *Metrics) discarded(n int) {
	if m == nil {
		return
	}
	m.Discarded.Add(float64(n))
}
