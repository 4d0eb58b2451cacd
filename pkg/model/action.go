package model

import (
	"context"
	"fmt"
	"log/slog"
)

// ApplyPatchesAction is the name of the built-in action run by ApplyPatches.
const ApplyPatchesAction = "$$applyPatches"

// ActionContext describes one running invocation of an action.
type ActionContext struct {
	id     uint64
	name   string
	target *Node
	args   []any
	parent *ActionContext
	root   *ActionContext
	tree   *Tree
	ctx    context.Context

	trackers []Tracker   // captured at root start
	data     map[any]any // side-table, root only
}

// ID returns a number unique among the contexts of the tree.
func (ac *ActionContext) ID() uint64 { return ac.id }

// Name returns the action name.
func (ac *ActionContext) Name() string { return ac.name }

// Target returns the node the action runs on.
func (ac *ActionContext) Target() *Node { return ac.target }

// Args returns the arguments the action was invoked with.
func (ac *ActionContext) Args() []any { return ac.args }

// Parent returns the enclosing context, or nil for a root context.
func (ac *ActionContext) Parent() *ActionContext { return ac.parent }

// Root returns the outermost context of the transaction. It is ac itself for a root.
func (ac *ActionContext) Root() *ActionContext { return ac.root }

// IsRoot reports whether ac started a new transaction.
func (ac *ActionContext) IsRoot() bool { return ac.root == ac }

// Tree returns the tree the action runs against.
func (ac *ActionContext) Tree() *Tree { return ac.tree }

// Context returns the context.Context handed to the action body.
func (ac *ActionContext) Context() context.Context { return ac.ctx }

// Data reads a value from the side-table shared by every context of the transaction.
// Use unexported key types to avoid collisions between packages.
func (ac *ActionContext) Data(key any) (any, bool) {
	v, ok := ac.root.data[key]
	return v, ok
}

// SetData stores a value in the transaction's side-table.
func (ac *ActionContext) SetData(key, value any) {
	r := ac.root
	if r.data == nil {
		r.data = make(map[any]any)
	}
	r.data[key] = value
}

// DeleteData removes a value from the transaction's side-table.
func (ac *ActionContext) DeleteData(key any) {
	delete(ac.root.data, key)
}

type ctxKey struct{}

// FromContext returns the action context carried by ctx, if any.
func FromContext(ctx context.Context) (*ActionContext, bool) {
	ac, ok := ctx.Value(ctxKey{}).(*ActionContext)
	return ac, ok && ac != nil
}

// Run invokes fn as an action named name on target.
//
// If ctx already carries a running context of the same tree the call is a nested
// sub-action of that transaction. Otherwise it starts a new root transaction and waits
// for the tree's scheduling lock.
func Run(ctx context.Context, target *Node, name string, fn func(ctx context.Context) error, args ...any) (err error) {
	if target == nil {
		return ErrNoTarget
	}
	t := target.tree

	parent, _ := FromContext(ctx)
	if parent != nil && parent.tree != t {
		parent = nil
	}
	if parent != nil && parent != t.active.Load() {
		return fmt.Errorf("%w: cannot run %q", ErrActionSuspended, name)
	}

	if parent == nil {
		t.sched.Lock()
		defer t.sched.Unlock()
	}

	ac := &ActionContext{
		id:     t.nextID.Add(1),
		name:   name,
		target: target,
		args:   args,
		parent: parent,
		tree:   t,
	}
	if parent == nil {
		ac.root = ac
		ac.trackers = t.snapshotTrackers()
	} else {
		ac.root = parent.root
		t.suspend(parent)
	}
	ac.ctx = context.WithValue(ctx, ctxKey{}, ac)

	for _, tr := range ac.root.trackers {
		tr.OnStart(ac)
	}
	t.resume(ac)

	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("action %q panicked: %v", name, r)
		}
		t.suspend(ac)
		for _, tr := range ac.root.trackers {
			tr.OnFinish(ac, err)
		}
		if err != nil {
			t.logger.Debug("action failed", "action", name, "id", ac.id, "err", err)
		}
		if parent != nil {
			t.resume(parent)
		}
		if r != nil {
			panic(r)
		}
	}()

	return fn(ac.ctx)
}

// Await runs fn as a suspension point of the action carried by ctx.
//
// The action is suspended and the tree's scheduling lock released while fn runs, so other
// root actions on the tree may execute in the meantime. fn receives a context without the
// action, so any action it starts is an independent transaction. Outside an action Await
// simply calls fn.
func Await(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	ac, ok := FromContext(ctx)
	if !ok {
		return fn(ctx)
	}
	t := ac.tree
	if ac != t.active.Load() {
		return ErrActionSuspended
	}

	t.suspend(ac)
	t.sched.Unlock()
	defer func() {
		t.sched.Lock()
		t.resume(ac)
	}()

	return fn(context.WithValue(ctx, ctxKey{}, (*ActionContext)(nil)))
}

// AwaitValue is Await for functions that produce a value.
func AwaitValue[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Await(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		out = v
		return err
	})
	return out, err
}

func (t *Tree) resume(ac *ActionContext) {
	t.active.Store(ac)
	for _, tr := range ac.root.trackers {
		tr.OnResume(ac)
	}
}

func (t *Tree) suspend(ac *ActionContext) {
	for _, tr := range ac.root.trackers {
		tr.OnSuspend(ac)
	}
	t.active.Store(nil)
}

// Logger returns the tree's logger.
func (t *Tree) Logger() *slog.Logger {
	return t.logger
}
