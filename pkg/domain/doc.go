/*
Package domain contains the core value types shared by every Keystone package.

It defines the wire-level vocabulary of the undo engine: patches describing a single
mutation of the model tree, the undo events that group the patches of one transaction,
and the history snapshot persisted by the storage adapters. This package is kept pure
and free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Patch: a single described mutation (op, path, optional value) against a subtree.
  - Path: the ordered segments from a subtree root to a location.
  - UndoEvent: the forward and inverse patches produced by one root-level action.
  - History: the two undo/redo stacks of an undo store, as persisted by adapters.
*/
package domain
