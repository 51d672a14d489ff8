package clock

import "time"

// Clock abstracts the current time and single-shot callback scheduling.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// AfterFunc calls f once after d elapses and returns a Timer that can cancel the call.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a handle to a pending AfterFunc call.
type Timer struct {
	// stopFunc cancels the pending call.
	stopFunc func() bool
}

// Stop prevents the callback from running. It returns true if the call
// stopped the timer and false if the timer already fired or was stopped.
// Stop is idempotent and safe to call on a nil Timer.
func (t *Timer) Stop() bool {
	if t == nil || t.stopFunc == nil {
		return false
	}

	return t.stopFunc()
}

// Real returns a Clock backed by the standard time package.
//
//nolint:ireturn // Returning the interface keeps the concrete type private.
func Real() Clock {
	return realClock{}
}

// realClock implements Clock with the time package.
type realClock struct{}

// Now returns time.Now.
func (realClock) Now() time.Time {
	return time.Now()
}

// AfterFunc wraps time.AfterFunc.
func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)

	return &Timer{
		stopFunc: timer.Stop,
	}
}
