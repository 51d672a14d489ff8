package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/alarm-scheduler/internal/clock"
	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
)

// Notifier announces fired alarms.
type Notifier interface {
	Fire(ctx context.Context, alarm *domain.Alarm)
}

// entry is the registry record for one alarm.
type entry struct {
	// alarm is the current state exposed through snapshots.
	alarm domain.Alarm
	// timer is the single pending timer for this alarm.
	timer *clock.Timer
}

// Registry schedules, reschedules and removes named alarms.
type Registry struct {
	// ctx carries the logger used by timer callbacks.
	ctx context.Context //nolint:containedctx // Timer callbacks have no caller context.
	// clock arms and cancels timers.
	clock clock.Clock
	// notifier receives every fired alarm.
	notifier Notifier
	// fireMu serializes firing routines from check to delivery. It is taken
	// before mu and never by the public methods, so listeners may call them.
	fireMu sync.Mutex
	// mu protects alarms and every entry's timer.
	mu sync.Mutex
	// alarms maps names to their entries.
	alarms map[string]*entry
}

// New creates an empty registry.
func New(ctx context.Context, clk clock.Clock, notifier Notifier) *Registry {
	return &Registry{
		ctx:      logger.WithName(ctx, "registry"),
		clock:    clk,
		notifier: notifier,
		alarms:   make(map[string]*entry),
	}
}

// Create schedules an alarm under name, replacing any alarm with the same name.
// Invalid info is rejected before anything changes.
func (r *Registry) Create(ctx context.Context, name string, info *domain.Info) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("create alarm %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clearLocked(name) {
		logger.DebugKV(ctx, "Replacing existing alarm", "alarm", name)
	}

	now := r.clock.Now()
	delay := info.Delay(now)

	e := &entry{
		alarm: domain.Alarm{
			Name:          name,
			ScheduledTime: now.Add(delay),
		},
	}

	if info.PeriodInMinutes != nil {
		period := *info.PeriodInMinutes
		e.alarm.PeriodInMinutes = &period
	}

	e.timer = r.arm(e, delay)
	r.alarms[name] = e

	logger.InfoKV(ctx, "Alarm created",
		"alarm", name,
		"scheduled_time", e.alarm.ScheduledTime,
		"period", e.alarm.Period(),
	)

	return nil
}

// Get returns a snapshot of the alarm registered under name.
func (r *Registry) Get(_ context.Context, name string) (*domain.Alarm, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.alarms[name]
	if !ok {
		return nil, false
	}

	return e.alarm.Clone(), true
}

// GetAll returns snapshots of every registered alarm in no particular order.
func (r *Registry) GetAll(_ context.Context) []*domain.Alarm {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*domain.Alarm, 0, len(r.alarms))
	for _, e := range r.alarms {
		result = append(result, e.alarm.Clone())
	}

	return result
}

// Clear cancels and removes the alarm registered under name.
// It reports whether such an alarm existed.
func (r *Registry) Clear(ctx context.Context, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.clearLocked(name) {
		return false
	}

	logger.InfoKV(ctx, "Alarm cleared", "alarm", name)

	return true
}

// ClearAll cancels and removes every alarm and returns how many were removed.
func (r *Registry) ClearAll(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0

	for name := range r.alarms {
		if r.clearLocked(name) {
			count++
		}
	}

	logger.InfoKV(ctx, "All alarms cleared", "count", count)

	return count
}

// Len returns the number of registered alarms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.alarms)
}

// clearLocked stops the timer of name and removes its entry.
// Must be called with r.mu held.
func (r *Registry) clearLocked(name string) bool {
	e, ok := r.alarms[name]
	if !ok {
		return false
	}

	e.timer.Stop()
	delete(r.alarms, name)

	return true
}

// arm schedules the firing routine for e after delay.
// Must be called with r.mu held.
func (r *Registry) arm(e *entry, delay time.Duration) *clock.Timer {
	return r.clock.AfterFunc(delay, func() {
		r.fire(e)
	})
}

// fire is the timer callback for e.
// Deliveries never overlap: the next fire of a periodic alarm is delivered
// after the previous one, and an alarm cleared before its fire started is
// never announced.
func (r *Registry) fire(e *entry) {
	r.fireMu.Lock()
	defer r.fireMu.Unlock()

	r.mu.Lock()

	// The entry was cleared or replaced while this callback was in flight.
	if current, ok := r.alarms[e.alarm.Name]; !ok || current != e {
		r.mu.Unlock()

		return
	}

	snapshot := e.alarm.Clone()

	if e.alarm.IsPeriodic() {
		period := e.alarm.Period()
		e.alarm.ScheduledTime = r.clock.Now().Add(period)
		e.timer = r.arm(e, period)
	} else {
		delete(r.alarms, e.alarm.Name)
	}

	r.mu.Unlock()

	logger.DebugKV(r.ctx, "Alarm fired",
		"alarm", snapshot.Name,
		"scheduled_time", snapshot.ScheduledTime,
		"periodic", snapshot.IsPeriodic(),
	)

	if r.notifier != nil {
		r.notifier.Fire(r.ctx, snapshot)
	}
}
