// Package model implements a mutable tree of object and array nodes whose changes are
// only allowed inside actions.
//
// Every mutation is reported as a forward and an inverse domain.Patch to the listeners
// registered with Tree.OnPatches, and every action invocation is reported to the
// Trackers registered with Tree.Use through the start, resume, suspend and finish
// lifecycle.
//
// Actions are started with Run. A Run whose context already carries a running action of
// the same tree becomes a nested sub-action of that transaction; otherwise it is a new
// root transaction. Root transactions of a tree are serialized by a scheduling lock that
// is only released at Await suspension points. Mutations take the context handed to the
// action body, so code running under one action can never write into another:
//
//	err := model.Run(ctx, todo, "setDone", func(ctx context.Context) error {
//		return todo.Set(ctx, "done", true)
//	})
package model
