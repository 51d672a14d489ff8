package notifier

import (
	"context"
	"sync"

	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
)

// Listener receives a snapshot of an alarm at the moment it fires.
type Listener func(ctx context.Context, alarm *domain.Alarm)

// listenerEntry is a registered listener with its diagnostic name.
type listenerEntry struct {
	// id is the registration key.
	id uint64
	// name identifies the listener in logs.
	name string
	// fn is the callback.
	fn Listener
}

// Notifier delivers fired alarms to every registered listener.
type Notifier struct {
	// mu protects listeners and nextID.
	mu sync.RWMutex
	// listeners holds the registered callbacks in registration order.
	listeners []listenerEntry
	// nextID is the id handed to the next registration.
	nextID uint64
}

// New creates a notifier without listeners.
func New() *Notifier {
	return new(Notifier)
}

// AddListener registers l and returns a function that removes it.
// The returned function may be called any number of times.
func (n *Notifier) AddListener(name string, l Listener) (remove func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, listenerEntry{
		id:   id,
		name: name,
		fn:   l,
	})

	var once sync.Once

	return func() {
		once.Do(func() {
			n.removeListener(id)
		})
	}
}

// removeListener drops the listener registered under id, if any.
func (n *Notifier) removeListener(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, entry := range n.listeners {
		if entry.id != id {
			continue
		}

		// Copy so that an in-flight Fire keeps iterating its own slice.
		listeners := make([]listenerEntry, 0, len(n.listeners)-1)
		listeners = append(listeners, n.listeners[:i]...)
		listeners = append(listeners, n.listeners[i+1:]...)
		n.listeners = listeners

		return
	}
}

// HasListeners reports whether at least one listener is registered.
func (n *Notifier) HasListeners() bool {
	return n.Len() > 0
}

// Len returns the number of registered listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return len(n.listeners)
}

// Fire calls every listener registered at the time of the call, in
// registration order. Each listener gets its own copy of the alarm.
// A panicking listener is logged and skipped.
func (n *Notifier) Fire(ctx context.Context, alarm *domain.Alarm) {
	n.mu.RLock()
	listeners := n.listeners
	n.mu.RUnlock()

	for _, entry := range listeners {
		n.deliver(ctx, entry, alarm.Clone())
	}
}

// deliver runs one listener and recovers from its panic.
func (n *Notifier) deliver(ctx context.Context, entry listenerEntry, alarm *domain.Alarm) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Alarm listener panicked",
				"listener", entry.name,
				"alarm", alarm.Name,
				"panic", r,
			)
		}
	}()

	entry.fn(ctx, alarm)
}
