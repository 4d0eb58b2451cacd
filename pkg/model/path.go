package model

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/aretw0/keystone/pkg/domain"
)

// PathTo returns the path from ancestor down to n.
// It reports false if n is not inside the subtree rooted at ancestor.
func PathTo(ancestor, n *Node) (domain.Path, bool) {
	if ancestor == nil || n == nil || ancestor.tree != n.tree {
		return nil, false
	}
	n.tree.data.RLock()
	defer n.tree.data.RUnlock()
	return pathTo(ancestor, n)
}

func pathTo(ancestor, n *Node) (domain.Path, bool) {
	var rev []string
	for cur := n; cur != nil; cur = cur.parent {
		if cur == ancestor {
			slices.Reverse(rev)
			return domain.Path(rev), true
		}
		if cur.parent == nil {
			break
		}
		key, ok := cur.parent.keyOf(cur)
		if !ok {
			return nil, false
		}
		rev = append(rev, key)
	}
	return nil, false
}

// IsAncestor reports whether n is ancestor itself or lives somewhere below it.
func IsAncestor(ancestor, n *Node) bool {
	if ancestor == nil || n == nil || ancestor.tree != n.tree {
		return false
	}
	n.tree.data.RLock()
	defer n.tree.data.RUnlock()
	return isAncestor(ancestor, n)
}

func isAncestor(ancestor, n *Node) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Path returns the path of n from the root of its tree, or nil if n is detached.
func (n *Node) Path() domain.Path {
	p, ok := PathTo(n.tree.root, n)
	if !ok {
		return nil
	}
	return p
}

// Resolve walks path from root and returns the value found there.
func Resolve(root *Node, path domain.Path) (any, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root", domain.ErrInvalidPath)
	}
	root.tree.data.RLock()
	defer root.tree.data.RUnlock()
	return resolve(root, path)
}

func resolve(root *Node, path domain.Path) (any, error) {
	var cur any = root
	for i, seg := range path {
		n, ok := cur.(*Node)
		if !ok || n == nil {
			return nil, fmt.Errorf("%w: %s is not a container", domain.ErrInvalidPath, path[:i].Pointer())
		}
		v, ok := n.get(seg)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPath, path[:i+1].Pointer())
		}
		cur = v
	}
	return cur, nil
}

// ResolveNode is like Resolve but requires the location to hold a node.
func ResolveNode(root *Node, path domain.Path) (*Node, error) {
	v, err := Resolve(root, path)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("%w: %s is not a container", domain.ErrInvalidPath, path.Pointer())
	}
	return n, nil
}

func parseIndex(seg string, max int) (int, error) {
	if seg == "-" {
		return max, nil
	}
	i, err := strconv.Atoi(seg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an array index", domain.ErrInvalidPath, seg)
	}
	if i < 0 || i > max {
		return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return i, nil
}
