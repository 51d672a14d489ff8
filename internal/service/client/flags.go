package client

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

// Flag names shared by the create command and InfoFromFlags.
const (
	// WhenFlag is the absolute first fire time in RFC 3339.
	WhenFlag = "when"
	// DelayFlag is the delay before the first fire, in minutes.
	DelayFlag = "delay"
	// PeriodFlag is the repeat period, in minutes.
	PeriodFlag = "period"
)

// RegisterInfoFlags adds the create flags to flags.
func RegisterInfoFlags(flags *pflag.FlagSet) {
	flags.String(WhenFlag, "", "absolute time of the first fire (RFC 3339)")
	flags.Float64(DelayFlag, 0, "minutes until the first fire")
	flags.Float64(PeriodFlag, 0, "repeat every N minutes")
}

// InfoFromFlags builds create options from the flags the user actually set.
// A flag that was not given stays absent even if its zero value is meaningful.
func InfoFromFlags(flags *pflag.FlagSet) (*domain.Info, error) {
	info := new(domain.Info)

	if flags.Changed(WhenFlag) {
		raw, err := flags.GetString(WhenFlag)
		if err != nil {
			return nil, err
		}

		when, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: --%s: %w", domain.ErrInvalidArgument, WhenFlag, err)
		}

		info.When = &when
	}

	if flags.Changed(DelayFlag) {
		delay, err := flags.GetFloat64(DelayFlag)
		if err != nil {
			return nil, err
		}

		info.DelayInMinutes = domain.Float(delay)
	}

	if flags.Changed(PeriodFlag) {
		period, err := flags.GetFloat64(PeriodFlag)
		if err != nil {
			return nil, err
		}

		info.PeriodInMinutes = domain.Float(period)
	}

	// Fail fast locally with the same message the server would return.
	if err := info.Validate(); err != nil {
		return nil, err
	}

	return info, nil
}
