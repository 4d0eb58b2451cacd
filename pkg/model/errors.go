package model

import "errors"

// Mutation errors
var (
	// ErrNotInAction indicates a mutation whose context carries no action of the tree.
	ErrNotInAction = errors.New("tree can only be modified inside an action")

	// ErrTypeMismatch indicates an operation that does not fit the node kind (e.g. Set on an array).
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrIndexOutOfRange indicates an array index outside the valid bounds.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrKeyNotFound indicates an object key that does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrAttached indicates a node that already has a parent (or would create a cycle).
	ErrAttached = errors.New("node is already attached")

	// ErrForeignNode indicates a node that belongs to a different tree.
	ErrForeignNode = errors.New("node belongs to a different tree")
)

// Action errors
var (
	// ErrActionSuspended is returned when a nested action or a mutation goes through a
	// context that is not currently running (e.g. from inside Await).
	ErrActionSuspended = errors.New("action context is suspended")

	// ErrNoTarget is returned when an action is invoked without a target node.
	ErrNoTarget = errors.New("action target is nil")
)
