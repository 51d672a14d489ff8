package alarm

import (
	"math"
	"time"
)

// Alarm is a snapshot of one scheduled wake-up.
type Alarm struct {
	// Name identifies the alarm. The empty string is the default alarm.
	Name string
	// ScheduledTime is when the alarm is next due to fire.
	ScheduledTime time.Time
	// PeriodInMinutes is set only for recurring alarms.
	PeriodInMinutes *float64
}

// IsPeriodic reports whether the alarm recurs.
func (a *Alarm) IsPeriodic() bool {
	return a.PeriodInMinutes != nil
}

// Period returns the recurrence interval, or zero for one-shot alarms.
func (a *Alarm) Period() time.Duration {
	if a.PeriodInMinutes == nil {
		return 0
	}

	return MinutesToDuration(*a.PeriodInMinutes)
}

// Clone returns a deep copy of the alarm.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a
	cloned.PeriodInMinutes = cloneFloat(a.PeriodInMinutes)

	return &cloned
}

// MinutesToDuration converts a fractional number of minutes to a duration.
// Values beyond the range of time.Duration saturate to its bounds, so a
// huge positive period never turns negative.
func MinutesToDuration(minutes float64) time.Duration {
	nanos := math.Round(minutes * float64(time.Minute))

	switch {
	case nanos >= math.MaxInt64:
		return math.MaxInt64
	case nanos <= math.MinInt64:
		return math.MinInt64
	default:
		return time.Duration(nanos)
	}
}

// DurationToMinutes converts a duration to a fractional number of minutes.
func DurationToMinutes(d time.Duration) float64 {
	return d.Minutes()
}

// UnixMilli returns t as fractional milliseconds since the Unix epoch.
func UnixMilli(t time.Time) float64 {
	subMilli := t.Nanosecond() % int(time.Millisecond)

	return float64(t.UnixMilli()) + float64(subMilli)/float64(time.Millisecond)
}

// FromUnixMilli is the inverse of UnixMilli.
func FromUnixMilli(ms float64) time.Time {
	whole := math.Floor(ms)
	subMilli := time.Duration(math.Round((ms - whole) * float64(time.Millisecond)))

	return time.UnixMilli(int64(whole)).Add(subMilli)
}

// Float returns a pointer to v. Handy for filling optional fields.
func Float(v float64) *float64 {
	return &v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}

	cloned := *v

	return &cloned
}
