package server

import (
	"context"
	"fmt"

	"github.com/oshokin/alarm-scheduler/internal/clock"
	"github.com/oshokin/alarm-scheduler/internal/config"
	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
	"github.com/oshokin/alarm-scheduler/internal/notifier"
	"github.com/oshokin/alarm-scheduler/internal/registry"
	"github.com/oshokin/alarm-scheduler/internal/repository/history"
)

// service bundles the registry with its notifier and built-in listeners.
// It is unexported to keep the transport decoupled from the wiring.
type service struct {
	// registry owns the alarms.
	registry *registry.Registry
	// events announces fired alarms.
	events *notifier.Notifier
	// detach removes the built-in listeners.
	detach []func()
}

// newService creates a registry on clk and attaches the logging listener
// and, when journal is not nil, the history listener.
func newService(ctx context.Context, clk clock.Clock, journal history.Repository) *service {
	events := notifier.New()

	s := &service{
		registry: registry.New(ctx, clk, events),
		events:   events,
	}

	s.detach = append(s.detach, events.AddListener("log", logFiredAlarm))

	if journal != nil {
		s.detach = append(s.detach, events.AddListener("history", history.Listener(journal, clk.Now)))
	}

	return s
}

// createPresets schedules the alarms listed in the configuration.
func (s *service) createPresets(ctx context.Context, presets []config.AlarmPreset) error {
	for i := range presets {
		preset := &presets[i]

		if err := s.registry.Create(ctx, preset.Name, preset.Info()); err != nil {
			return fmt.Errorf("create preset alarm: %w", err)
		}
	}

	return nil
}

// shutdown cancels every alarm and detaches the built-in listeners.
func (s *service) shutdown(ctx context.Context) {
	s.registry.ClearAll(ctx)

	for _, remove := range s.detach {
		remove()
	}
}

// logFiredAlarm is the built-in listener that logs every fired alarm.
func logFiredAlarm(ctx context.Context, alarm *domain.Alarm) {
	kvs := []any{
		"alarm", alarm.Name,
		"scheduled_time", alarm.ScheduledTime,
	}

	if alarm.IsPeriodic() {
		kvs = append(kvs, "period_in_minutes", *alarm.PeriodInMinutes)
	}

	logger.InfoKV(ctx, "Alarm fired", kvs...)
}
