/*
Package observability provides trackers for monitoring model actions and undo stores.

ActionTracker logs every action context with log/slog and, when given Metrics, records
Prometheus counters and a duration histogram per action name. Metrics.StoreTracker
follows an undo store's own actions to count undo/redo operations and expose the queue
depths as gauges.
*/
package observability
