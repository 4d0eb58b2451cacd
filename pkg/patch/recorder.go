// Package patch records the patches a subtree emits while recording is switched on.
package patch

import (
	"slices"
	"sync"

	"github.com/aretw0/keystone/pkg/domain"
	"github.com/aretw0/keystone/pkg/model"
)

// Recorder accumulates forward and inverse patches of a subtree in generation order.
type Recorder struct {
	mu        sync.Mutex
	recording bool
	patches   []domain.Patch
	inverse   []domain.Patch
	dispose   func()
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithRecording sets the initial recording state. Recorders start recording by default.
func WithRecording(on bool) Option {
	return func(r *Recorder) {
		r.recording = on
	}
}

// NewRecorder starts observing the subtree rooted at subtree.
func NewRecorder(subtree *model.Node, opts ...Option) *Recorder {
	r := &Recorder{recording: true}
	for _, opt := range opts {
		opt(r)
	}
	r.dispose = subtree.Tree().OnPatches(subtree, r.record)
	return r
}

func (r *Recorder) record(p, inv domain.Patch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	r.patches = append(r.patches, p)
	r.inverse = append(r.inverse, inv)
}

// Recording reports whether mutations are currently captured.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// SetRecording pauses or resumes capture. Already captured patches are kept.
func (r *Recorder) SetRecording(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = on
}

// Patches returns the forward patches in chronological order.
func (r *Recorder) Patches() []domain.Patch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Patch, len(r.patches))
	copy(out, r.patches)
	return out
}

// InversePatches returns the inverse patches in application order, newest first.
func (r *Recorder) InversePatches() []domain.Patch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Patch, len(r.inverse))
	copy(out, r.inverse)
	slices.Reverse(out)
	return out
}

// Len returns the number of captured mutations.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.patches)
}

// Dispose stops observing the subtree. It is safe to call more than once.
func (r *Recorder) Dispose() {
	r.mu.Lock()
	dispose := r.dispose
	r.dispose = nil
	r.recording = false
	r.mu.Unlock()

	if dispose != nil {
		dispose()
	}
}
