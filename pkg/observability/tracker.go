package observability

import (
	"log/slog"
	"time"

	"github.com/aretw0/keystone/internal/logging"
	"github.com/aretw0/keystone/pkg/model"
)

// ActionTracker logs and measures every action context of a tree.
type ActionTracker struct {
	logger  *slog.Logger
	metrics *Metrics
	level   slog.Level
}

// Option configures an ActionTracker.
type Option func(*ActionTracker)

// WithLogger sets the logger that receives lifecycle records.
func WithLogger(logger *slog.Logger) Option {
	return func(t *ActionTracker) {
		t.logger = logger
	}
}

// WithMetrics enables Prometheus recording.
func WithMetrics(m *Metrics) Option {
	return func(t *ActionTracker) {
		t.metrics = m
	}
}

// WithLevel sets the level of successful finish records. Failures are always logged as errors.
func WithLevel(level slog.Level) Option {
	return func(t *ActionTracker) {
		t.level = level
	}
}

// NewActionTracker creates a tracker. Register it with Tree.Use.
func NewActionTracker(opts ...Option) *ActionTracker {
	t := &ActionTracker{
		logger: logging.NewNop(),
		level:  slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// startKey keys the start time of one context in the transaction side-table.
type startKey struct {
	t  *ActionTracker
	id uint64
}

func attrs(ac *model.ActionContext) []any {
	out := []any{
		"action", ac.Name(),
		"id", ac.ID(),
	}
	if !ac.IsRoot() {
		out = append(out, "root_id", ac.Root().ID(), "root_action", ac.Root().Name())
	}
	if p := ac.Target().Path(); p != nil {
		out = append(out, "target", p.Pointer())
	}
	return out
}

func (t *ActionTracker) OnStart(ac *model.ActionContext) {
	ac.SetData(startKey{t, ac.ID()}, time.Now())
	t.logger.Debug("action_start", attrs(ac)...)
	if t.metrics != nil {
		t.metrics.ActionsStarted.WithLabelValues(ac.Name()).Inc()
	}
}

func (t *ActionTracker) OnResume(ac *model.ActionContext) {
	t.logger.Debug("action_resume", "action", ac.Name(), "id", ac.ID())
}

func (t *ActionTracker) OnSuspend(ac *model.ActionContext) {
	t.logger.Debug("action_suspend", "action", ac.Name(), "id", ac.ID())
}

func (t *ActionTracker) OnFinish(ac *model.ActionContext, err error) {
	key := startKey{t, ac.ID()}
	var elapsed time.Duration
	if v, ok := ac.Data(key); ok {
		elapsed = time.Since(v.(time.Time))
		ac.DeleteData(key)
	}

	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
		t.logger.Error("action_finish", append(attrs(ac), "duration", elapsed, "err", err)...)
	} else {
		t.logger.Log(ac.Context(), t.level, "action_finish", append(attrs(ac), "duration", elapsed)...)
	}

	if t.metrics != nil {
		t.metrics.ActionsFinished.WithLabelValues(ac.Name(), outcome).Inc()
		t.metrics.ActionDuration.WithLabelValues(ac.Name()).Observe(elapsed.Seconds())
	}
}
