package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyQueue is returned when undo or redo is requested with nothing to act on.
var ErrEmptyQueue = errors.New("empty queue")

// ErrPatchApplication is returned when a patch cannot be applied onto a tree.
var ErrPatchApplication = errors.New("patch application failed")

// ErrInvalidPath indicates that a path does not resolve to a location in the tree.
var ErrInvalidPath = errors.New("invalid path")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// PatchError describes which patch of a batch could not be applied.
type PatchError struct {
	Index int
	Patch Patch
	Err   error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch %d (%s %s): %v", e.Index, e.Patch.Op, e.Patch.Path.Pointer(), e.Err)
}

// Unwrap exposes both the cause and ErrPatchApplication to errors.Is.
func (e *PatchError) Unwrap() []error {
	return []error{ErrPatchApplication, e.Err}
}
