package observability

import (
	"errors"

	"github.com/aretw0/keystone/pkg/model"
	"github.com/aretw0/keystone/pkg/undo"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "keystone"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups the Prometheus collectors fed by the trackers of this package.
type Metrics struct {
	ActionsStarted  *prometheus.CounterVec
	ActionsFinished *prometheus.CounterVec
	ActionDuration  *prometheus.HistogramVec
	StoreOps        *prometheus.CounterVec
	QueueDepth      *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// Collectors already registered by a previous call are reused; any other registration
// error panics, like prometheus.MustRegister.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_started_total",
				Help:      "Total number of started action contexts",
			},
			[]string{"action"},
		),
		ActionsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_finished_total",
				Help:      "Total number of finished action contexts by outcome",
			},
			[]string{"action", "outcome"},
		),
		ActionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Wall time between start and finish of an action context",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"action"},
		),
		StoreOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "undo_store_operations_total",
				Help:      "Total number of undo store operations",
			},
			[]string{"op"},
		),
		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "undo_queue_depth",
				Help:      "Number of events in the undo and redo queues",
			},
			[]string{"queue"},
		),
	}

	m.ActionsStarted = register(reg, m.ActionsStarted)
	m.ActionsFinished = register(reg, m.ActionsFinished)
	m.ActionDuration = register(reg, m.ActionDuration)
	m.StoreOps = register(reg, m.StoreOps)
	m.QueueDepth = register(reg, m.QueueDepth)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// storeOps maps store action names to the op label.
var storeOps = map[string]string{
	undo.ActionAddUndo:   "add",
	undo.ActionUndo:      "undo",
	undo.ActionRedo:      "redo",
	undo.ActionClearUndo: "clear_undo",
	undo.ActionClearRedo: "clear_redo",
}

// StoreTracker returns a tracker for store.Tree() that counts store operations and keeps
// the queue depth gauges current.
func (m *Metrics) StoreTracker(store *undo.Store) model.Tracker {
	m.setDepth(store)
	return model.Hooks{
		Finish: func(ac *model.ActionContext, err error) {
			if !ac.IsRoot() {
				return
			}
			if op, ok := storeOps[ac.Name()]; ok && err == nil {
				m.StoreOps.WithLabelValues(op).Inc()
			}
			m.setDepth(store)
		},
	}
}

func (m *Metrics) setDepth(store *undo.Store) {
	m.QueueDepth.WithLabelValues("undo").Set(float64(len(store.UndoEvents())))
	m.QueueDepth.WithLabelValues("redo").Set(float64(len(store.RedoEvents())))
}
