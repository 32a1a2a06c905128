// Package memory provides in-process implementations of the store
// interfaces. It backs the CLI's dry runs, the feature tests and any
// embedding that does not need durability.
//
// Each request is guarded by its own mutex so appends to one request never
// wait on another.
package memory
