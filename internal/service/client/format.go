package client

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

// defaultAlarmLabel is printed instead of the empty name.
const defaultAlarmLabel = "<default>"

// FormatAlarm renders an alarm as `name at RFC3339 [every N min]`.
func FormatAlarm(alarm *domain.Alarm) string {
	if alarm == nil {
		return "<nil alarm>"
	}

	var sb strings.Builder

	sb.WriteString(displayName(alarm.Name))
	sb.WriteString(" at ")
	sb.WriteString(alarm.ScheduledTime.Local().Format(time.RFC3339))

	if alarm.IsPeriodic() {
		sb.WriteString(" every ")
		sb.WriteString(strconv.FormatFloat(*alarm.PeriodInMinutes, 'f', -1, 64))
		sb.WriteString(" min")
	}

	return sb.String()
}

// displayName quotes names so the empty default alarm stays visible.
func displayName(name string) string {
	if name == "" {
		return defaultAlarmLabel
	}

	return fmt.Sprintf("%q", name)
}

// sortAlarms orders alarms by scheduled time, then by name.
func sortAlarms(alarms []*domain.Alarm) {
	slices.SortFunc(alarms, func(a, b *domain.Alarm) int {
		if c := a.ScheduledTime.Compare(b.ScheduledTime); c != 0 {
			return c
		}

		return strings.Compare(a.Name, b.Name)
	})
}
