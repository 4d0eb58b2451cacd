package undo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/keystone/internal/logging"
	"github.com/aretw0/keystone/pkg/domain"
	"github.com/aretw0/keystone/pkg/model"
	"github.com/aretw0/keystone/pkg/patch"
)

// Middleware turns every root action on a tracked subtree into one UndoEvent.
// Register it with Tree.Use.
type Middleware struct {
	root        *model.Node
	store       *Store
	emptyEvents bool
	logger      *slog.Logger
}

// recorderKey scopes the recorder slot to a single middleware instance.
type recorderKey struct{ m *Middleware }

// Option configures New.
type Option func(*config)

type config struct {
	store       *Store
	emptyEvents bool
	logger      *slog.Logger
}

// WithStore makes the manager use an existing store instead of a fresh one.
func WithStore(store *Store) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithEmptyEvents controls whether root actions that changed nothing still push an event.
// Enabled by default.
func WithEmptyEvents(enabled bool) Option {
	return func(c *config) {
		c.emptyEvents = enabled
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New creates the middleware and manager for the subtree rooted at root.
func New(root *model.Node, opts ...Option) (*Middleware, *Manager, error) {
	if root == nil {
		return nil, nil, errors.New("undo: root node is nil")
	}
	cfg := &config{
		emptyEvents: true,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.store == nil {
		cfg.store = NewStore(model.WithLogger(cfg.logger))
	}

	mw := &Middleware{
		root:        root,
		store:       cfg.store,
		emptyEvents: cfg.emptyEvents,
		logger:      cfg.logger,
	}
	return mw, &Manager{root: root, store: cfg.store, logger: cfg.logger}, nil
}

// Attach is New followed by registering the middleware on root's tree.
func Attach(root *model.Node, opts ...Option) (*Manager, func(), error) {
	mw, mgr, err := New(root, opts...)
	if err != nil {
		return nil, nil, err
	}
	return mgr, root.Tree().Use(mw), nil
}

func (m *Middleware) recorder(ac *model.ActionContext) *patch.Recorder {
	v, ok := ac.Data(recorderKey{m})
	if !ok {
		return nil
	}
	return v.(*patch.Recorder)
}

// OnStart attaches a paused recorder to root actions that target the tracked subtree,
// unless their context suppresses undo.
func (m *Middleware) OnStart(ac *model.ActionContext) {
	if !ac.IsRoot() || Skipping(ac.Context()) {
		return
	}
	if !model.IsAncestor(m.root, ac.Target()) {
		return
	}
	ac.SetData(recorderKey{m}, patch.NewRecorder(m.root, patch.WithRecording(false)))
}

// OnResume turns recording on while any context of the transaction runs.
func (m *Middleware) OnResume(ac *model.ActionContext) {
	if rec := m.recorder(ac); rec != nil {
		rec.SetRecording(true)
	}
}

// OnSuspend pauses recording so interleaved transactions are not captured.
func (m *Middleware) OnSuspend(ac *model.ActionContext) {
	if rec := m.recorder(ac); rec != nil {
		rec.SetRecording(false)
	}
}

// OnFinish pushes one event for the finished root action, failed or not, and disposes
// its recorder.
func (m *Middleware) OnFinish(ac *model.ActionContext, _ error) {
	if !ac.IsRoot() {
		return
	}
	rec := m.recorder(ac)
	if rec == nil {
		return
	}
	ac.DeleteData(recorderKey{m})
	defer rec.Dispose()

	if rec.Len() == 0 && !m.emptyEvents {
		return
	}
	targetPath, _ := model.PathTo(m.root, ac.Target())
	if targetPath == nil {
		targetPath = domain.Path{}
	}
	event := domain.UndoEvent{
		TargetPath:     targetPath,
		ActionName:     ac.Name(),
		Patches:        rec.Patches(),
		InversePatches: rec.InversePatches(),
	}
	if err := m.store.addUndo(context.WithoutCancel(ac.Context()), event); err != nil {
		m.logger.Error("failed to record undo event", "action", ac.Name(), "err", err)
		return
	}
	m.logger.Debug("undo event recorded", "action", ac.Name(), "patches", len(event.Patches))
}
