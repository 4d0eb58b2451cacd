package model

import (
	"context"
	"fmt"

	"github.com/aretw0/keystone/pkg/domain"
)

// change is a forward patch and its inverse, both relative to the mutated node.
type change struct {
	patch   domain.Patch
	inverse domain.Patch
}

// The mutating methods below take the context handed to the running action's body.
// They fail with ErrNotInAction when ctx carries no action of the tree and with
// ErrActionSuspended when the carried action is not the one currently running.

// Set stores value under key on an object node, adding or replacing it.
func (n *Node) Set(ctx context.Context, key string, value any) error {
	return n.mutate(ctx, func() ([]change, error) {
		return n.set(key, value)
	})
}

// Delete removes key from an object node.
func (n *Node) Delete(ctx context.Context, key string) error {
	return n.mutate(ctx, func() ([]change, error) {
		return n.delete(key)
	})
}

// Append adds values at the end of an array node.
func (n *Node) Append(ctx context.Context, values ...any) error {
	return n.mutate(ctx, func() ([]change, error) {
		_, ch, err := n.splice(len(n.items), 0, values)
		return ch, err
	})
}

// Insert adds values at index on an array node. Index equal to Len appends.
func (n *Node) Insert(ctx context.Context, index int, values ...any) error {
	return n.mutate(ctx, func() ([]change, error) {
		_, ch, err := n.splice(index, 0, values)
		return ch, err
	})
}

// SetAt replaces the element at index on an array node.
func (n *Node) SetAt(ctx context.Context, index int, value any) error {
	return n.mutate(ctx, func() ([]change, error) {
		return n.setAt(index, value)
	})
}

// RemoveAt removes the element at index on an array node.
func (n *Node) RemoveAt(ctx context.Context, index int) error {
	return n.mutate(ctx, func() ([]change, error) {
		if n.kind == KindArray && (index < 0 || index >= len(n.items)) {
			return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		_, ch, err := n.splice(index, 1, nil)
		return ch, err
	})
}

// Splice removes deleteCount elements starting at start and inserts values in their place.
// It returns snapshots of the removed elements.
func (n *Node) Splice(ctx context.Context, start, deleteCount int, values ...any) ([]any, error) {
	var removed []any
	err := n.mutate(ctx, func() ([]change, error) {
		r, ch, err := n.splice(start, deleteCount, values)
		removed = r
		return ch, err
	})
	return removed, err
}

func (n *Node) mutate(ctx context.Context, fn func() ([]change, error)) error {
	t := n.tree
	if err := t.checkWritable(ctx); err != nil {
		return err
	}
	t.data.Lock()
	changes, err := fn()
	t.data.Unlock()
	if err != nil {
		return err
	}
	t.emit(n, changes)
	return nil
}

// prepare converts value into something attachable under n.
func (n *Node) prepare(value any) (any, error) {
	v, err := n.tree.build(value)
	if err != nil {
		return nil, err
	}
	if c, ok := v.(*Node); ok && isAncestor(c, n) {
		return nil, fmt.Errorf("%w: node would become its own descendant", ErrAttached)
	}
	return v, nil
}

func (n *Node) set(key string, value any) ([]change, error) {
	if n.kind != KindObject {
		return nil, fmt.Errorf("%w: set %q on %s", ErrTypeMismatch, key, n.kind)
	}
	v, err := n.prepare(value)
	if err != nil {
		return nil, err
	}
	old, existed := n.fields[key]
	n.fields[key] = n.adopt(v, key)

	path := domain.Path{key}
	if !existed {
		return []change{{
			patch:   domain.Patch{Op: domain.OpAdd, Path: path, Value: snapshot(v)},
			inverse: domain.Patch{Op: domain.OpRemove, Path: path},
		}}, nil
	}
	oldSnap := snapshot(old)
	release(old)
	return []change{{
		patch:   domain.Patch{Op: domain.OpReplace, Path: path, Value: snapshot(v)},
		inverse: domain.Patch{Op: domain.OpReplace, Path: path, Value: oldSnap},
	}}, nil
}

func (n *Node) delete(key string) ([]change, error) {
	if n.kind != KindObject {
		return nil, fmt.Errorf("%w: delete %q on %s", ErrTypeMismatch, key, n.kind)
	}
	old, ok := n.fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	oldSnap := snapshot(old)
	delete(n.fields, key)
	release(old)

	path := domain.Path{key}
	return []change{{
		patch:   domain.Patch{Op: domain.OpRemove, Path: path},
		inverse: domain.Patch{Op: domain.OpAdd, Path: path, Value: oldSnap},
	}}, nil
}

func (n *Node) setAt(index int, value any) ([]change, error) {
	if n.kind != KindArray {
		return nil, fmt.Errorf("%w: set index %d on %s", ErrTypeMismatch, index, n.kind)
	}
	if index < 0 || index >= len(n.items) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	v, err := n.prepare(value)
	if err != nil {
		return nil, err
	}
	old := n.items[index]
	oldSnap := snapshot(old)
	release(old)
	n.items[index] = n.adopt(v, "")

	path := domain.Path{domain.Index(index)}
	return []change{{
		patch:   domain.Patch{Op: domain.OpReplace, Path: path, Value: snapshot(v)},
		inverse: domain.Patch{Op: domain.OpReplace, Path: path, Value: oldSnap},
	}}, nil
}

// splice emits one remove per deleted element followed by one add per inserted element,
// so replaying the forward patches in order reproduces the final array.
func (n *Node) splice(start, deleteCount int, values []any) ([]any, []change, error) {
	if n.kind != KindArray {
		return nil, nil, fmt.Errorf("%w: splice on %s", ErrTypeMismatch, n.kind)
	}
	if start < 0 || start > len(n.items) {
		return nil, nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, start)
	}
	if deleteCount < 0 {
		return nil, nil, fmt.Errorf("%w: negative delete count %d", ErrIndexOutOfRange, deleteCount)
	}
	deleteCount = min(deleteCount, len(n.items)-start)

	built := make([]any, len(values))
	seen := make(map[*Node]struct{}, len(values))
	for i, value := range values {
		v, err := n.prepare(value)
		if err != nil {
			return nil, nil, fmt.Errorf("[%d]: %w", i, err)
		}
		if c, ok := v.(*Node); ok && c != nil {
			if _, dup := seen[c]; dup {
				return nil, nil, fmt.Errorf("[%d]: %w", i, ErrAttached)
			}
			seen[c] = struct{}{}
		}
		built[i] = v
	}

	changes := make([]change, 0, deleteCount+len(built))
	removed := make([]any, deleteCount)
	at := domain.Path{domain.Index(start)}
	for i := 0; i < deleteCount; i++ {
		old := n.items[start+i]
		removed[i] = snapshot(old)
		release(old)
		changes = append(changes, change{
			patch:   domain.Patch{Op: domain.OpRemove, Path: at},
			inverse: domain.Patch{Op: domain.OpAdd, Path: at, Value: removed[i]},
		})
	}
	for i, v := range built {
		path := domain.Path{domain.Index(start + i)}
		changes = append(changes, change{
			patch:   domain.Patch{Op: domain.OpAdd, Path: path, Value: snapshot(v)},
			inverse: domain.Patch{Op: domain.OpRemove, Path: path},
		})
		n.adopt(v, "")
	}

	items := make([]any, 0, len(n.items)-deleteCount+len(built))
	items = append(items, n.items[:start]...)
	items = append(items, built...)
	items = append(items, n.items[start+deleteCount:]...)
	n.items = items
	return removed, changes, nil
}
