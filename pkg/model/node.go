package model

import (
	"slices"
	"sort"
	"strconv"
)

// Kind distinguishes the two container shapes a Node can take.
type Kind int

const (
	KindObject Kind = iota
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Node is an object or array container inside a Tree.
//
// Children are either other nodes or leaves. Leaves are stored by reference and
// must be treated as immutable values; replace them instead of mutating them in place.
type Node struct {
	tree   *Tree
	kind   Kind
	parent *Node
	key    string // key within an object parent

	fields map[string]any
	items  []any
}

// Kind reports whether the node is an object or an array.
func (n *Node) Kind() Kind {
	return n.kind
}

// Tree returns the tree that owns the node.
func (n *Node) Tree() *Tree {
	return n.tree
}

// Parent returns the parent node, or nil for a root or detached node.
func (n *Node) Parent() *Node {
	n.tree.data.RLock()
	defer n.tree.data.RUnlock()
	return n.parent
}

// Get returns the child stored under key. For arrays the key is a decimal index.
func (n *Node) Get(key string) (any, bool) {
	n.tree.data.RLock()
	defer n.tree.data.RUnlock()
	return n.get(key)
}

// Index returns the i-th element of an array node.
func (n *Node) Index(i int) (any, bool) {
	n.tree.data.RLock()
	defer n.tree.data.RUnlock()
	if n.kind != KindArray || i < 0 || i >= len(n.items) {
		return nil, false
	}
	return n.items[i], true
}

// Child returns the child node stored under key, or nil if it is missing or a leaf.
func (n *Node) Child(key string) *Node {
	v, ok := n.Get(key)
	if !ok {
		return nil
	}
	c, _ := v.(*Node)
	return c
}

// Len returns the number of fields of an object or elements of an array.
func (n *Node) Len() int {
	n.tree.data.RLock()
	defer n.tree.data.RUnlock()
	if n.kind == KindArray {
		return len(n.items)
	}
	return len(n.fields)
}

// Keys returns the sorted field names of an object, or the indices of an array.
func (n *Node) Keys() []string {
	n.tree.data.RLock()
	defer n.tree.data.RUnlock()
	if n.kind == KindArray {
		keys := make([]string, len(n.items))
		for i := range n.items {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	}
	keys := make([]string, 0, len(n.fields))
	for k := range n.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Items returns a copy of the elements of an array node.
func (n *Node) Items() []any {
	n.tree.data.RLock()
	defer n.tree.data.RUnlock()
	return slices.Clone(n.items)
}

// Snapshot returns a deep plain copy: objects become map[string]any, arrays []any.
func (n *Node) Snapshot() any {
	n.tree.data.RLock()
	defer n.tree.data.RUnlock()
	return snapshot(n)
}

func (n *Node) get(key string) (any, bool) {
	if n.kind == KindObject {
		v, ok := n.fields[key]
		return v, ok
	}
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= len(n.items) {
		return nil, false
	}
	return n.items[i], true
}

// keyOf returns the segment under which child is stored in n.
func (n *Node) keyOf(child *Node) (string, bool) {
	if n.kind == KindObject {
		return child.key, true
	}
	for i, it := range n.items {
		if c, ok := it.(*Node); ok && c == child {
			return strconv.Itoa(i), true
		}
	}
	return "", false
}

func (n *Node) adopt(v any, key string) any {
	if c, ok := v.(*Node); ok && c != nil {
		c.parent = n
		c.key = key
	}
	return v
}

func release(v any) {
	if c, ok := v.(*Node); ok && c != nil {
		c.parent = nil
		c.key = ""
	}
}

func snapshot(v any) any {
	n, ok := v.(*Node)
	if !ok || n == nil {
		return v
	}
	if n.kind == KindArray {
		out := make([]any, len(n.items))
		for i, it := range n.items {
			out[i] = snapshot(it)
		}
		return out
	}
	out := make(map[string]any, len(n.fields))
	for k, f := range n.fields {
		out[k] = snapshot(f)
	}
	return out
}
