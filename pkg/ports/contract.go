package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/keystone/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractHistory() *domain.History {
	h := domain.NewHistory()
	h.UndoEvents = append(h.UndoEvents, domain.UndoEvent{
		TargetPath:     domain.Path{"list", "0"},
		ActionName:     "setText",
		Patches:        []domain.Patch{{Op: domain.OpReplace, Path: domain.Path{"list", "0", "text"}, Value: "after"}},
		InversePatches: []domain.Patch{{Op: domain.OpReplace, Path: domain.Path{"list", "0", "text"}, Value: "before"}},
	})
	h.RedoEvents = append(h.RedoEvents, domain.UndoEvent{
		TargetPath:     domain.Path{"list"},
		ActionName:     "remove",
		Patches:        []domain.Patch{{Op: domain.OpRemove, Path: domain.Path{"list", "1"}}},
		InversePatches: []domain.Patch{{Op: domain.OpAdd, Path: domain.Path{"list", "1"}, Value: map[string]any{"done": true}}},
	})
	return h
}

// RunHistoryStoreContract runs a suite of tests to verify that a HistoryStore implementation
// adheres to the defined interface contract.
func RunHistoryStoreContract(t *testing.T, store HistoryStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		history := contractHistory()

		err := store.Save(ctx, sessionID, history)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.UndoEvents, 1)
		require.Len(t, loaded.RedoEvents, 1)

		undo := loaded.UndoEvents[0]
		assert.Equal(t, "setText", undo.ActionName)
		assert.Equal(t, domain.Path{"list", "0"}, undo.TargetPath)
		assert.Equal(t, history.UndoEvents[0].Patches, undo.Patches)
		assert.Equal(t, history.UndoEvents[0].InversePatches, undo.InversePatches)

		// Structured values survive as plain JSON-like maps.
		redo := loaded.RedoEvents[0]
		assert.Equal(t, domain.OpAdd, redo.InversePatches[0].Op)
		assert.Equal(t, map[string]any{"done": true}, redo.InversePatches[0].Value)
	})

	t.Run("Save is isolated from caller", func(t *testing.T) {
		history := contractHistory()
		require.NoError(t, store.Save(ctx, sessionID, history))

		history.UndoEvents = nil
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, loaded.UndoEvents, 1)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewHistory())
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewHistory()))
		require.NoError(t, store.Save(ctx, id2, domain.NewHistory()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
