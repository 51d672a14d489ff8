// Package registry implements the named-alarm registry.
//
// A Registry maps alarm names to scheduled alarms. Each alarm owns exactly
// one pending timer on the injected clock. When the timer fires the alarm
// is announced through the injected notifier and then either re-armed for
// its period or removed.
package registry
