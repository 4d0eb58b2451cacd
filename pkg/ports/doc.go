/*
Package ports defines the driven ports (interfaces) used to persist undo history.

These interfaces decouple sessions from concrete backends, allowing the same
undo stacks to live in memory, on disk, in Redis or in Badger.

# Key Interfaces

  - HistoryStore: Responsible for persisting and loading the undo/redo stacks of a session.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
