package model

import (
	"context"
	"fmt"

	"github.com/aretw0/keystone/pkg/domain"
)

// ApplyPatches applies patches in order onto target as the ApplyPatchesAction action.
//
// Paths are relative to target. If a patch fails, the patches already applied by this
// call are reverted and a *domain.PatchError is returned, leaving the tree as it was.
func ApplyPatches(ctx context.Context, target *Node, patches []domain.Patch) error {
	return Run(ctx, target, ApplyPatchesAction, func(ctx context.Context) error {
		undo := make([][]change, 0, len(patches))
		for i, p := range patches {
			ch, err := applyPatch(ctx, target, p)
			if err != nil {
				rollback(ctx, target, undo)
				return &domain.PatchError{Index: i, Patch: p, Err: err}
			}
			undo = append(undo, ch)
		}
		return nil
	}, patches)
}

func applyPatch(ctx context.Context, target *Node, p domain.Patch) ([]change, error) {
	if len(p.Path) == 0 {
		return nil, fmt.Errorf("%w: cannot %s the target itself", domain.ErrInvalidPath, p.Op)
	}
	parent, err := ResolveNode(target, p.Path[:len(p.Path)-1])
	if err != nil {
		return nil, err
	}
	prefix, key := p.Path[:len(p.Path)-1], p.Path[len(p.Path)-1]

	var changes []change
	err = parent.mutate(ctx, func() ([]change, error) {
		ch, err := applyOne(parent, p.Op, key, p.Value)
		changes = ch
		return ch, err
	})
	if err != nil {
		return nil, err
	}
	for i := range changes {
		changes[i].inverse = changes[i].inverse.WithPrefix(prefix)
	}
	return changes, nil
}

func applyOne(n *Node, op domain.Op, key string, value any) ([]change, error) {
	if n.kind == KindObject {
		switch op {
		case domain.OpAdd:
			return n.set(key, value)
		case domain.OpReplace:
			if _, ok := n.fields[key]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
			}
			return n.set(key, value)
		case domain.OpRemove:
			return n.delete(key)
		}
		return nil, fmt.Errorf("unknown op %q", op)
	}

	switch op {
	case domain.OpAdd:
		i, err := parseIndex(key, len(n.items))
		if err != nil {
			return nil, err
		}
		_, ch, err := n.splice(i, 0, []any{value})
		return ch, err
	case domain.OpReplace:
		i, err := parseIndex(key, len(n.items)-1)
		if err != nil {
			return nil, err
		}
		return n.setAt(i, value)
	case domain.OpRemove:
		i, err := parseIndex(key, len(n.items)-1)
		if err != nil {
			return nil, err
		}
		_, ch, err := n.splice(i, 1, nil)
		return ch, err
	}
	return nil, fmt.Errorf("unknown op %q", op)
}

// rollback reverts applied changes, newest first.
func rollback(ctx context.Context, target *Node, applied [][]change) {
	for i := len(applied) - 1; i >= 0; i-- {
		for j := len(applied[i]) - 1; j >= 0; j-- {
			inv := applied[i][j].inverse
			if _, err := applyPatch(ctx, target, inv); err != nil {
				target.tree.logger.Error("rollback failed", "op", inv.Op, "path", inv.Path.Pointer(), "err", err)
			}
		}
	}
}
