package model

import (
	"slices"

	"github.com/aretw0/keystone/pkg/domain"
)

// PatchListener receives a forward patch and its inverse, relative to the observed subtree.
type PatchListener func(patch, inverse domain.Patch)

type listenerEntry struct {
	subtree *Node
	fn      PatchListener
}

// OnPatches registers fn for every mutation inside the subtree rooted at subtree.
// Listeners run synchronously on the mutating goroutine, in registration order.
func (t *Tree) OnPatches(subtree *Node, fn PatchListener) (dispose func()) {
	entry := &listenerEntry{subtree: subtree, fn: fn}

	t.regMu.Lock()
	t.listeners = append(t.listeners, entry)
	t.regMu.Unlock()

	return func() {
		t.regMu.Lock()
		defer t.regMu.Unlock()
		t.listeners = slices.DeleteFunc(t.listeners, func(e *listenerEntry) bool {
			return e == entry
		})
	}
}

func (t *Tree) emit(n *Node, changes []change) {
	if len(changes) == 0 {
		return
	}
	t.regMu.RLock()
	listeners := slices.Clone(t.listeners)
	t.regMu.RUnlock()

	for _, l := range listeners {
		prefix, ok := PathTo(l.subtree, n)
		if !ok {
			continue
		}
		for _, c := range changes {
			l.fn(c.patch.WithPrefix(prefix), c.inverse.WithPrefix(prefix))
		}
	}
}
