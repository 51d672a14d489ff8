package client

import (
	"context"
	"fmt"
	"io"

	"github.com/oshokin/alarm-scheduler/internal/config"
	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
	"github.com/oshokin/alarm-scheduler/internal/service/common"
)

// Options configures how alarmctl reaches the alarm server.
type Options struct {
	// ConfigPath to YAML settings file, defaults are used if the file is missing.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Debug enables debug logging of the RPC calls.
	Debug bool
}

// AlarmClient is the subset of the gRPC client used by the operations.
type AlarmClient interface {
	CreateAlarm(ctx context.Context, name string, info *domain.Info) error
	GetAlarm(ctx context.Context, name string) (*domain.Alarm, error)
	GetAllAlarms(ctx context.Context) ([]*domain.Alarm, error)
	ClearAlarm(ctx context.Context, name string) (bool, error)
	ClearAllAlarms(ctx context.Context) (int, error)
	WatchAlarms(ctx context.Context, handler func(*domain.Alarm) error) error
}

// Action is a single alarmctl operation bound to its arguments.
type Action func(ctx context.Context, client AlarmClient) error

// Run connects to the alarm server and performs action.
func Run(ctx context.Context, opts *Options, action Action) error {
	if opts.Debug {
		logger.EnableDebug()
	}

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarmctl")

	// Missing settings are fine for a CLI, defaults point at localhost.
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := common.Dial(ctx, serverAddress,
		common.WithCallTimeout(cfg.Timeout),
		common.WithActor(actor),
	)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Connected to alarm server", "server_address", serverAddress, "actor", actor)

	return action(ctx, client)
}

// Create schedules an alarm and prints it back as the server stored it.
func Create(name string, info *domain.Info, out io.Writer) Action {
	return func(ctx context.Context, client AlarmClient) error {
		if err := client.CreateAlarm(ctx, name, info); err != nil {
			return err
		}

		alarm, err := client.GetAlarm(ctx, name)
		if err != nil {
			return err
		}

		// The alarm may already have fired if it was due immediately.
		if alarm == nil {
			_, err = fmt.Fprintf(out, "created %s (already fired)\n", displayName(name))

			return err
		}

		_, err = fmt.Fprintf(out, "created %s\n", FormatAlarm(alarm))

		return err
	}
}

// Get prints a single alarm or reports that there is none.
func Get(name string, out io.Writer) Action {
	return func(ctx context.Context, client AlarmClient) error {
		alarm, err := client.GetAlarm(ctx, name)
		if err != nil {
			return err
		}

		if alarm == nil {
			_, err = fmt.Fprintf(out, "no alarm %s\n", displayName(name))

			return err
		}

		_, err = fmt.Fprintln(out, FormatAlarm(alarm))

		return err
	}
}

// List prints every alarm, one per line, ordered by next fire time.
func List(out io.Writer) Action {
	return func(ctx context.Context, client AlarmClient) error {
		alarms, err := client.GetAllAlarms(ctx)
		if err != nil {
			return err
		}

		if len(alarms) == 0 {
			_, err = fmt.Fprintln(out, "no alarms")

			return err
		}

		sortAlarms(alarms)

		for _, alarm := range alarms {
			if _, err = fmt.Fprintln(out, FormatAlarm(alarm)); err != nil {
				return err
			}
		}

		return nil
	}
}

// Clear removes one alarm.
func Clear(name string, out io.Writer) Action {
	return func(ctx context.Context, client AlarmClient) error {
		cleared, err := client.ClearAlarm(ctx, name)
		if err != nil {
			return err
		}

		if !cleared {
			_, err = fmt.Fprintf(out, "no alarm %s\n", displayName(name))

			return err
		}

		_, err = fmt.Fprintf(out, "cleared %s\n", displayName(name))

		return err
	}
}

// ClearAll removes every alarm.
func ClearAll(out io.Writer) Action {
	return func(ctx context.Context, client AlarmClient) error {
		count, err := client.ClearAllAlarms(ctx)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(out, "cleared %d alarm(s)\n", count)

		return err
	}
}

// Watch prints fired alarms until ctx is cancelled or the server stops.
func Watch(out io.Writer) Action {
	return func(ctx context.Context, client AlarmClient) error {
		return client.WatchAlarms(ctx, func(alarm *domain.Alarm) error {
			_, err := fmt.Fprintf(out, "fired %s\n", FormatAlarm(alarm))

			return err
		})
	}
}
