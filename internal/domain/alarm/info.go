package alarm

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidArgument is returned when alarm options are self-contradictory or incomplete.
var ErrInvalidArgument = errors.New("invalid argument")

// Info describes how to schedule an alarm.
//
// At least one field must be set, and When cannot be combined with DelayInMinutes.
type Info struct {
	// When is the absolute time of the first fire.
	When *time.Time
	// DelayInMinutes is the delay before the first fire.
	DelayInMinutes *float64
	// PeriodInMinutes makes the alarm recur with this interval.
	PeriodInMinutes *float64
}

// Validate checks that the options describe exactly one schedule.
func (i *Info) Validate() error {
	if i == nil {
		return fmt.Errorf("%w: alarm info is required", ErrInvalidArgument)
	}

	switch {
	case i.When != nil && i.DelayInMinutes != nil:
		return fmt.Errorf("%w: cannot set both when and delayInMinutes", ErrInvalidArgument)
	case i.When == nil && i.DelayInMinutes == nil && i.PeriodInMinutes == nil:
		return fmt.Errorf("%w: must set at least one of when, delayInMinutes, periodInMinutes", ErrInvalidArgument)
	}

	if i.DelayInMinutes != nil && !isFinite(*i.DelayInMinutes) {
		return fmt.Errorf("%w: delayInMinutes must be a finite number", ErrInvalidArgument)
	}

	if i.PeriodInMinutes != nil && (!isFinite(*i.PeriodInMinutes) || *i.PeriodInMinutes <= 0) {
		return fmt.Errorf("%w: periodInMinutes must be a positive number", ErrInvalidArgument)
	}

	return nil
}

// Delay resolves the delay before the first fire relative to now.
// It assumes Validate succeeded.
func (i *Info) Delay(now time.Time) time.Duration {
	switch {
	case i.When != nil:
		return i.When.Sub(now)
	case i.DelayInMinutes != nil:
		return MinutesToDuration(*i.DelayInMinutes)
	default:
		return MinutesToDuration(*i.PeriodInMinutes)
	}
}

// Clone returns a deep copy of the info.
func (i *Info) Clone() *Info {
	if i == nil {
		return nil
	}

	cloned := &Info{
		DelayInMinutes:  cloneFloat(i.DelayInMinutes),
		PeriodInMinutes: cloneFloat(i.PeriodInMinutes),
	}

	if i.When != nil {
		when := *i.When
		cloned.When = &when
	}

	return cloned
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
