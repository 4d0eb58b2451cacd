package undo

import (
	"context"
	"fmt"

	"github.com/aretw0/keystone/pkg/domain"
	"github.com/aretw0/keystone/pkg/model"
)

// Store action names. These are the only operations that change the stacks.
const (
	ActionClearUndo = "_clearUndo"
	ActionClearRedo = "_clearRedo"
	ActionUndo      = "_undo"
	ActionRedo      = "_redo"
	ActionAddUndo   = "_addUndo"
)

const (
	undoKey = "undoEvents"
	redoKey = "redoEvents"
)

// Store holds the undo and redo stacks in a tree of its own, so every change to them is
// an observable action. The last element of each stack is its top.
type Store struct {
	tree *model.Tree
	undo *model.Node
	redo *model.Node
}

// NewStore creates an empty store.
func NewStore(opts ...model.Option) *Store {
	s, err := RestoreStore(domain.NewHistory(), opts...)
	if err != nil {
		// An empty history always builds.
		panic(err)
	}
	return s
}

// RestoreStore builds a fresh store holding the given history.
func RestoreStore(h *domain.History, opts ...model.Option) (*Store, error) {
	if h == nil {
		h = domain.NewHistory()
	}
	tree, err := model.NewTree(map[string]any{
		undoKey: toItems(h.UndoEvents),
		redoKey: toItems(h.RedoEvents),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("restore undo store: %w", err)
	}
	return &Store{
		tree: tree,
		undo: tree.Root().Child(undoKey),
		redo: tree.Root().Child(redoKey),
	}, nil
}

// Tree exposes the store's own tree so trackers can observe its actions.
func (s *Store) Tree() *model.Tree {
	return s.tree
}

// UndoEvents returns a copy of the undo stack, oldest first.
func (s *Store) UndoEvents() []domain.UndoEvent {
	return fromItems(s.undo.Items())
}

// RedoEvents returns a copy of the redo stack, oldest first.
func (s *Store) RedoEvents() []domain.UndoEvent {
	return fromItems(s.redo.Items())
}

// History returns a copy of both stacks, suitable for persistence.
func (s *Store) History() *domain.History {
	return &domain.History{
		UndoEvents: s.UndoEvents(),
		RedoEvents: s.RedoEvents(),
	}
}

func (s *Store) run(ctx context.Context, name string, fn func(ctx context.Context) error, args ...any) error {
	return model.Run(ctx, s.tree.Root(), name, fn, args...)
}

func (s *Store) clearUndo(ctx context.Context) error {
	return s.run(ctx, ActionClearUndo, func(ctx context.Context) error {
		_, err := s.undo.Splice(ctx, 0, s.undo.Len())
		return err
	})
}

func (s *Store) clearRedo(ctx context.Context) error {
	return s.run(ctx, ActionClearRedo, func(ctx context.Context) error {
		_, err := s.redo.Splice(ctx, 0, s.redo.Len())
		return err
	})
}

func (s *Store) undoLast(ctx context.Context) error {
	return s.run(ctx, ActionUndo, func(ctx context.Context) error {
		return move(ctx, s.undo, s.redo)
	})
}

func (s *Store) redoLast(ctx context.Context) error {
	return s.run(ctx, ActionRedo, func(ctx context.Context) error {
		return move(ctx, s.redo, s.undo)
	})
}

func (s *Store) addUndo(ctx context.Context, event domain.UndoEvent) error {
	return s.run(ctx, ActionAddUndo, func(ctx context.Context) error {
		if err := s.undo.Append(ctx, event.Clone()); err != nil {
			return err
		}
		_, err := s.redo.Splice(ctx, 0, s.redo.Len())
		return err
	}, event)
}

// move pops the top of from and pushes it onto to.
func move(ctx context.Context, from, to *model.Node) error {
	n := from.Len()
	if n == 0 {
		return domain.ErrEmptyQueue
	}
	ev, _ := from.Index(n - 1)
	if err := from.RemoveAt(ctx, n-1); err != nil {
		return err
	}
	return to.Append(ctx, ev)
}

func toItems(events []domain.UndoEvent) []any {
	items := make([]any, len(events))
	for i, ev := range events {
		items[i] = ev.Clone()
	}
	return items
}

func fromItems(items []any) []domain.UndoEvent {
	out := make([]domain.UndoEvent, 0, len(items))
	for _, it := range items {
		if ev, ok := it.(domain.UndoEvent); ok {
			out = append(out, ev.Clone())
		}
	}
	return out
}
