// Package dispatch runs fire-and-forget work on background goroutines.
//
// A Pool optionally bounds concurrency, recovers panics raised by its
// tasks and logs every failure. Failures are discarded once logged and
// never reach the code that submitted the task.
package dispatch
