// Package undo adds transactional undo/redo to a model subtree.
//
// The Middleware is a model.Tracker. For each root action whose target lives in the
// tracked subtree it attaches a patch recorder to the transaction, records only while one
// of the transaction's contexts is running, and on finish pushes a single
// domain.UndoEvent holding every patch of the transaction, nested sub-actions included.
//
// The Manager applies the recorded inverse or forward patches under Skip, so undoing and
// redoing never create new events, and only then moves the event between the stacks of
// the Store.
//
//	mw, mgr, err := undo.New(tree.Root())
//	if err != nil {
//		return err
//	}
//	defer tree.Use(mw)()
//
//	_ = model.Run(ctx, todo, "setDone", func(ctx context.Context) error {
//		return todo.Set(ctx, "done", true)
//	})
//	_ = mgr.Undo(ctx)
package undo
