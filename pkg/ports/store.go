package ports

import (
	"context"

	"github.com/aretw0/keystone/pkg/domain"
)

// HistoryStore defines the interface for persisting undo history.
// This allows an editing session to be closed and reopened with its undo and redo stacks intact.
type HistoryStore interface {
	// Save persists the history for a given session ID.
	Save(ctx context.Context, sessionID string, history *domain.History) error

	// Load retrieves the history for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.History, error)

	// Delete removes the history for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of every stored session.
	List(ctx context.Context) ([]string, error)
}
