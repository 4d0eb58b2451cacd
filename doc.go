/*
Package keystone adds transactional undo/redo to a mutable model tree.

A model tree (package model) is a JSON-like hierarchy of object and array nodes that can
only be changed from inside actions. Every mutation emits a patch together with its
inverse. The undo middleware (package undo) groups all patches of one root action,
nested sub-actions and resumed async continuations included, into a single UndoEvent.
Undoing applies the inverse patches in reverse order; redoing applies the forward ones.

# Concept

Actions are ordinary functions run through model.Run. Whether a call is nested or a new
root is decided by the context it receives: a context that carries a running action of the
same tree makes the call a sub-action. Long running work hands the tree back with
model.Await, which lets other root actions run and keeps their patches apart.

# Usage

	tree := model.MustNewTree(map[string]any{"todos": []any{}})
	todos := tree.Root().Child("todos")

	sess, err := keystone.Track(ctx, tree.Root())
	if err != nil {
		log.Fatal(err)
	}
	defer sess.Close()

	_ = model.Run(ctx, todos, "add", func(ctx context.Context) error {
		return todos.Append(ctx, map[string]any{"text": "buy milk", "done": false})
	})
	_ = sess.Undo(ctx)
	_ = sess.Redo(ctx)

# Persistence

WithPersistence ties a Session to a session.Manager backed by any ports.HistoryStore:
memory, JSON files, Redis or Badger, optionally decorated with encryption and PII
masking. The history is saved after every change to the undo or redo stack.
*/
package keystone
