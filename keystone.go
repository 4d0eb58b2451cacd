package keystone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/keystone/internal/logging"
	"github.com/aretw0/keystone/pkg/model"
	"github.com/aretw0/keystone/pkg/observability"
	"github.com/aretw0/keystone/pkg/session"
	"github.com/aretw0/keystone/pkg/undo"
	"github.com/google/uuid"
)

// Session is a tracked subtree: every root action on it becomes an undo event.
type Session struct {
	id       string
	root     *model.Node
	manager  *undo.Manager
	sessions *session.Manager
	logger   *slog.Logger
	dispose  []func()
}

// Option defines a functional option for Track.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	metrics     *observability.Metrics
	sessions    *session.Manager
	sessionID   string
	store       *undo.Store
	emptyEvents bool
}

// WithLogger sets a custom structured logger. Action lifecycles are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records action and store metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithPersistence loads the history of sessionID from sessions and saves it after every
// change to the stacks. An empty sessionID generates a new one.
func WithPersistence(sessions *session.Manager, sessionID string) Option {
	return func(o *options) {
		o.sessions = sessions
		o.sessionID = sessionID
	}
}

// WithStore reuses an existing undo store. Ignored when persistence is configured.
func WithStore(store *undo.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithEmptyEvents controls whether actions that changed nothing are recorded.
func WithEmptyEvents(enabled bool) Option {
	return func(o *options) {
		o.emptyEvents = enabled
	}
}

// Track starts recording undo events for the subtree rooted at root.
// Call Close to stop.
func Track(ctx context.Context, root *model.Node, opts ...Option) (*Session, error) {
	if root == nil {
		return nil, errors.New("keystone: root node is nil")
	}
	o := &options{
		logger:      logging.NewNop(),
		emptyEvents: true,
	}
	for _, opt := range opts {
		opt(o)
	}

	s := &Session{
		id:       o.sessionID,
		root:     root,
		sessions: o.sessions,
		logger:   o.logger,
	}

	store := o.store
	if o.sessions != nil {
		if s.id == "" {
			s.id = uuid.NewString()
		}
		var err error
		store, err = o.sessions.Open(ctx, s.id)
		if err != nil {
			return nil, fmt.Errorf("open session %s: %w", s.id, err)
		}
		s.dispose = append(s.dispose, store.Tree().Use(o.sessions.AutoSave(s.id, store)))
	}
	if store == nil {
		store = undo.NewStore(model.WithLogger(o.logger))
	}
	if o.metrics != nil {
		s.dispose = append(s.dispose, store.Tree().Use(o.metrics.StoreTracker(store)))
	}

	tracker := observability.NewActionTracker(
		observability.WithLogger(o.logger),
		observability.WithMetrics(o.metrics),
		observability.WithLevel(slog.LevelDebug),
	)
	s.dispose = append(s.dispose, root.Tree().Use(tracker))

	mw, mgr, err := undo.New(root,
		undo.WithStore(store),
		undo.WithEmptyEvents(o.emptyEvents),
		undo.WithLogger(o.logger),
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.manager = mgr
	s.dispose = append(s.dispose, root.Tree().Use(mw))

	o.logger.Info("session tracking started", "session_id", s.id, "undo_levels", mgr.UndoLevels())
	return s, nil
}

// ID returns the persisted session ID, or "" for an in-memory session.
func (s *Session) ID() string { return s.id }

// Root returns the tracked node.
func (s *Session) Root() *model.Node { return s.root }

// Manager exposes the undo manager, e.g. for its queues.
func (s *Session) Manager() *undo.Manager { return s.manager }

// Undo reverts the most recent action. See undo.Manager.Undo.
func (s *Session) Undo(ctx context.Context) error { return s.manager.Undo(ctx) }

// Redo reapplies the most recently undone action.
func (s *Session) Redo(ctx context.Context) error { return s.manager.Redo(ctx) }

func (s *Session) CanUndo() bool { return s.manager.CanUndo() }

func (s *Session) CanRedo() bool { return s.manager.CanRedo() }

// Save persists the current history. It is a no-op without persistence.
func (s *Session) Save(ctx context.Context) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Save(ctx, s.id, s.manager.Store().History())
}

// Close unregisters every tracker installed by Track. The recorded history stays readable.
func (s *Session) Close() {
	for i := len(s.dispose) - 1; i >= 0; i-- {
		s.dispose[i]()
	}
	s.dispose = nil
}
