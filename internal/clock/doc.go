// Package clock provides the timer capability the alarm registry consumes.
//
// Production code uses Real, which is backed by time.AfterFunc. Tests use
// Fake, a deterministic clock whose time only moves when Advance is called
// and which runs due callbacks in the calling goroutine.
package clock
