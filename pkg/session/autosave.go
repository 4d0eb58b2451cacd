package session

import (
	"context"

	"github.com/aretw0/keystone/pkg/model"
	"github.com/aretw0/keystone/pkg/undo"
)

// AutoSave returns a tracker that persists the history of store after every action that
// changes its stacks. Register it on store.Tree().
func (m *Manager) AutoSave(sessionID string, store *undo.Store) model.Tracker {
	return model.Hooks{
		Finish: func(ac *model.ActionContext, err error) {
			if !ac.IsRoot() {
				return
			}
			ctx := context.WithoutCancel(ac.Context())
			if saveErr := m.Save(ctx, sessionID, store.History()); saveErr != nil {
				m.logger.Error("autosave failed",
					"session_id", sessionID,
					"action", ac.Name(),
					"err", saveErr,
				)
				return
			}
			m.logger.Debug("history saved", "session_id", sessionID, "action", ac.Name())
		},
	}
}
