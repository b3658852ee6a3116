// Package tasks runs discovery batches as cancellable background jobs,
// enforcing one running task per process and, via a file lock, one per
// data directory.
package tasks
