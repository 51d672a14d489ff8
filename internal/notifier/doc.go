// Package notifier implements the event that announces fired alarms.
//
// Listeners are registered and removed here; the registry only calls Fire.
package notifier
