package model

import "slices"

// Tracker observes the lifecycle of every action context of a tree.
//
// For each context OnStart and OnFinish fire exactly once. OnResume and OnSuspend
// bracket every interval during which the context is the one executing. Callbacks run
// on the action's goroutine while the tree's scheduling lock is held, so they must not
// start root actions on the same tree.
type Tracker interface {
	OnStart(ac *ActionContext)
	OnResume(ac *ActionContext)
	OnSuspend(ac *ActionContext)
	OnFinish(ac *ActionContext, err error)
}

// Hooks adapts plain functions to the Tracker interface. Nil fields are skipped.
type Hooks struct {
	Start   func(ac *ActionContext)
	Resume  func(ac *ActionContext)
	Suspend func(ac *ActionContext)
	Finish  func(ac *ActionContext, err error)
}

func (h Hooks) OnStart(ac *ActionContext) {
	if h.Start != nil {
		h.Start(ac)
	}
}

func (h Hooks) OnResume(ac *ActionContext) {
	if h.Resume != nil {
		h.Resume(ac)
	}
}

func (h Hooks) OnSuspend(ac *ActionContext) {
	if h.Suspend != nil {
		h.Suspend(ac)
	}
}

func (h Hooks) OnFinish(ac *ActionContext, err error) {
	if h.Finish != nil {
		h.Finish(ac, err)
	}
}

type trackerEntry struct {
	tracker Tracker
}

// Use registers a tracker on the tree and returns a function that removes it.
//
// Trackers are captured when a root action starts: a tracker added or removed while a
// transaction is in flight only affects later transactions.
func (t *Tree) Use(tracker Tracker) (dispose func()) {
	entry := &trackerEntry{tracker: tracker}

	t.regMu.Lock()
	t.trackers = append(t.trackers, entry)
	t.regMu.Unlock()

	return func() {
		t.regMu.Lock()
		defer t.regMu.Unlock()
		t.trackers = slices.DeleteFunc(t.trackers, func(e *trackerEntry) bool {
			return e == entry
		})
	}
}

func (t *Tree) snapshotTrackers() []Tracker {
	t.regMu.RLock()
	defer t.regMu.RUnlock()
	out := make([]Tracker, len(t.trackers))
	for i, e := range t.trackers {
		out[i] = e.tracker
	}
	return out
}
