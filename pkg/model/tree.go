package model

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/keystone/internal/logging"
)

// Tree owns a root node and schedules the actions that run against it.
//
// A root action holds the scheduling lock for as long as it is resumed, so at most one
// action context of a tree executes at a time. Interleaving between unrelated root actions
// only happens at suspension points (see Await).
type Tree struct {
	sched  sync.Mutex                    // cooperative scheduling lock
	data   sync.RWMutex                  // guards node contents for concurrent readers
	active atomic.Pointer[ActionContext] // context currently resumed, if any
	nextID atomic.Uint64

	root *Node

	regMu     sync.RWMutex
	trackers  []*trackerEntry
	listeners []*listenerEntry

	logger *slog.Logger
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets a custom structured logger for the tree.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		t.logger = logger
	}
}

// NewTree builds a tree from a plain snapshot.
// The snapshot must be a map[string]any or a []any; nested containers become nodes.
func NewTree(snapshot any, opts ...Option) (*Tree, error) {
	t := &Tree{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	v, err := t.build(snapshot)
	if err != nil {
		return nil, err
	}
	root, ok := v.(*Node)
	if !ok {
		return nil, fmt.Errorf("%w: root must be an object or an array, got %T", ErrTypeMismatch, snapshot)
	}
	t.root = root
	return t, nil
}

// MustNewTree is like NewTree but panics on error. Intended for tests and static fixtures.
func MustNewTree(snapshot any, opts ...Option) *Tree {
	t, err := NewTree(snapshot, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Root returns the root node of the tree.
func (t *Tree) Root() *Node {
	return t.root
}

// Snapshot returns a deep plain copy of the whole tree.
func (t *Tree) Snapshot() any {
	return t.root.Snapshot()
}

// NewObject creates a detached object node owned by this tree.
func (t *Tree) NewObject(fields map[string]any) (*Node, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	v, err := t.build(fields)
	if err != nil {
		return nil, err
	}
	return v.(*Node), nil
}

// NewArray creates a detached array node owned by this tree.
func (t *Tree) NewArray(items ...any) (*Node, error) {
	if items == nil {
		items = []any{}
	}
	v, err := t.build(items)
	if err != nil {
		return nil, err
	}
	return v.(*Node), nil
}

// Active returns the action context currently running on the tree, if any.
func (t *Tree) Active() *ActionContext {
	return t.active.Load()
}

// checkWritable accepts only the context of the action currently resumed on t.
func (t *Tree) checkWritable(ctx context.Context) error {
	ac, ok := FromContext(ctx)
	if !ok || ac.tree != t {
		return ErrNotInAction
	}
	if ac != t.active.Load() {
		return fmt.Errorf("%w: %q cannot modify the tree", ErrActionSuspended, ac.name)
	}
	return nil
}

// build converts plain container values into detached nodes. Other values are leaves.
func (t *Tree) build(v any) (any, error) {
	switch val := v.(type) {
	case *Node:
		if val == nil {
			return nil, nil
		}
		if val.tree != t {
			return nil, ErrForeignNode
		}
		if val.parent != nil || val == t.root {
			return nil, ErrAttached
		}
		return val, nil
	case map[string]any:
		n := &Node{tree: t, kind: KindObject, fields: make(map[string]any, len(val))}
		for k, child := range val {
			c, err := t.build(child)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			n.fields[k] = n.adopt(c, k)
		}
		return n, nil
	case []any:
		n := &Node{tree: t, kind: KindArray, items: make([]any, len(val))}
		for i, child := range val {
			c, err := t.build(child)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			n.items[i] = n.adopt(c, "")
		}
		return n, nil
	default:
		return v, nil
	}
}
