/*
Package session implements persistence orchestration for undo histories.

A Manager serializes access to each session's history, optionally across replicas
through a ports.DistributedLocker, and turns stored histories into live undo stores:

	store, err := mgr.Open(ctx, "doc-1")
	if err != nil {
		return err
	}
	defer store.Tree().Use(mgr.AutoSave("doc-1", store))()

AutoSave persists the history after every action that changes the undo or redo stack.
*/
package session
