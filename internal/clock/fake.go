package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a deterministic Clock for tests. Time advances only when
// Advance is called.
//
// Callbacks run synchronously inside Advance, without the clock lock held,
// so they may call Now and AfterFunc. They must not call Advance.
type FakeClock struct {
	// mu protects every field below.
	mu sync.Mutex
	// current is the fake wall time.
	current time.Time
	// waiters are the pending callbacks.
	waiters []*fakeWaiter
	// seq orders waiters that share a deadline by registration.
	seq uint64
	// waitersChanged is broadcast whenever a waiter is registered.
	waitersChanged *sync.Cond
}

// fakeWaiter is one pending AfterFunc call.
type fakeWaiter struct {
	// deadline is when the callback becomes due.
	deadline time.Time
	// seq is the registration order.
	seq uint64
	// callback runs when the clock passes deadline.
	callback func()
	// stopped is set by Timer.Stop.
	stopped bool
	// fired is set once the callback has been collected for running.
	fired bool
}

var _ Clock = (*FakeClock)(nil)

// Fake returns a FakeClock set to initial.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{
		current: initial,
	}
	c.waitersChanged = sync.NewCond(&c.mu)

	return c
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

// AfterFunc registers f to run once the clock reaches now+d.
// A non-positive d makes the callback due immediately; it runs on the next
// Advance call, including Advance(0), and never inside AfterFunc itself.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d < 0 {
		d = 0
	}

	c.seq++
	waiter := &fakeWaiter{
		deadline: c.current.Add(d),
		seq:      c.seq,
		callback: f,
	}
	c.waiters = append(c.waiters, waiter)
	c.waitersChanged.Broadcast()

	return &Timer{
		stopFunc: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()

			if waiter.stopped || waiter.fired {
				return false
			}

			waiter.stopped = true

			return true
		},
	}
}

// Advance moves the clock forward by d and runs every callback whose
// deadline is not after the new time, in deadline order. Callbacks armed
// by other callbacks run too if they are already due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current
	c.mu.Unlock()

	for {
		toFire := c.collectExpired(target)
		if len(toFire) == 0 {
			return
		}

		for _, waiter := range toFire {
			waiter.callback()
		}
	}
}

// Set moves the clock to t, firing callbacks like Advance. Moving backwards
// only changes Now.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	d := t.Sub(c.current)

	if d < 0 {
		c.current = t
		c.mu.Unlock()

		return
	}
	c.mu.Unlock()

	c.Advance(d)
}

// collectExpired removes due waiters from the pending list and returns them
// sorted by deadline, then by registration order.
func (c *FakeClock) collectExpired(target time.Time) []*fakeWaiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		toFire    []*fakeWaiter
		remaining []*fakeWaiter
	)

	for _, waiter := range c.waiters {
		switch {
		case waiter.stopped:
			continue
		case !waiter.deadline.After(target):
			waiter.fired = true
			toFire = append(toFire, waiter)
		default:
			remaining = append(remaining, waiter)
		}
	}

	c.waiters = remaining

	sort.Slice(toFire, func(i, j int) bool {
		if toFire[i].deadline.Equal(toFire[j].deadline) {
			return toFire[i].seq < toFire[j].seq
		}

		return toFire[i].deadline.Before(toFire[j].deadline)
	})

	return toFire
}

// WaitForTimers blocks until at least n callbacks are pending.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.pendingCountLocked() < n {
		c.waitersChanged.Wait()
	}
}

// PendingCount returns the number of callbacks that are neither stopped nor fired.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pendingCountLocked()
}

// pendingCountLocked must be called with c.mu held.
func (c *FakeClock) pendingCountLocked() int {
	count := 0

	for _, waiter := range c.waiters {
		if !waiter.stopped {
			count++
		}
	}

	return count
}
