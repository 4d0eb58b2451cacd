package undo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/keystone/pkg/domain"
	"github.com/aretw0/keystone/pkg/model"
)

var (
	// ErrNothingToUndo is returned by Undo when the undo queue is empty.
	ErrNothingToUndo = fmt.Errorf("nothing to undo: %w", domain.ErrEmptyQueue)
	// ErrNothingToRedo is returned by Redo when the redo queue is empty.
	ErrNothingToRedo = fmt.Errorf("nothing to redo: %w", domain.ErrEmptyQueue)
)

// Manager undoes and redoes the events recorded for a subtree.
// Undo and Redo must not be called concurrently with each other.
type Manager struct {
	root   *model.Node
	store  *Store
	logger *slog.Logger
}

// Store returns the store backing the manager.
func (m *Manager) Store() *Store {
	return m.store
}

// UndoQueue returns copies of the undo events, oldest first. The last one is undone next.
func (m *Manager) UndoQueue() []domain.UndoEvent {
	return m.store.UndoEvents()
}

// RedoQueue returns copies of the redo events, oldest first. The last one is redone next.
func (m *Manager) RedoQueue() []domain.UndoEvent {
	return m.store.RedoEvents()
}

// UndoLevels returns the number of events that can be undone.
func (m *Manager) UndoLevels() int { return m.store.undo.Len() }

// RedoLevels returns the number of events that can be redone.
func (m *Manager) RedoLevels() int { return m.store.redo.Len() }

// CanUndo reports whether the undo queue is not empty.
func (m *Manager) CanUndo() bool { return m.UndoLevels() > 0 }

// CanRedo reports whether the redo queue is not empty.
func (m *Manager) CanRedo() bool { return m.RedoLevels() > 0 }

// Undo reverts the most recent event and moves it to the redo queue.
// If the inverse patches cannot be applied the queues are left untouched.
func (m *Manager) Undo(ctx context.Context) error {
	ev, ok := last(m.store.undo)
	if !ok {
		return ErrNothingToUndo
	}
	err := Skip(ctx, func(ctx context.Context) error {
		return model.ApplyPatches(ctx, m.root, ev.InversePatches)
	})
	if err != nil {
		return fmt.Errorf("undo %q: %w", ev.ActionName, err)
	}
	m.logger.Debug("undo", "action", ev.ActionName, "patches", len(ev.InversePatches))
	return m.store.undoLast(ctx)
}

// Redo reapplies the most recently undone event and moves it back to the undo queue.
func (m *Manager) Redo(ctx context.Context) error {
	ev, ok := last(m.store.redo)
	if !ok {
		return ErrNothingToRedo
	}
	err := Skip(ctx, func(ctx context.Context) error {
		return model.ApplyPatches(ctx, m.root, ev.Patches)
	})
	if err != nil {
		return fmt.Errorf("redo %q: %w", ev.ActionName, err)
	}
	m.logger.Debug("redo", "action", ev.ActionName, "patches", len(ev.Patches))
	return m.store.redoLast(ctx)
}

// ClearUndo empties the undo queue.
func (m *Manager) ClearUndo(ctx context.Context) error {
	return m.store.clearUndo(ctx)
}

// ClearRedo empties the redo queue.
func (m *Manager) ClearRedo(ctx context.Context) error {
	return m.store.clearRedo(ctx)
}

func last(stack *model.Node) (domain.UndoEvent, bool) {
	n := stack.Len()
	if n == 0 {
		return domain.UndoEvent{}, false
	}
	v, _ := stack.Index(n - 1)
	ev, ok := v.(domain.UndoEvent)
	return ev, ok
}
